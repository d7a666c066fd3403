package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/reserva-bot/internal/config"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	chat := newChatCmd(opts)

	root := &cobra.Command{
		Use:          "reservabot",
		Short:        "Conversational restaurant reservation agent backed by an assistant API and an n8n workflow",
		SilenceUsage: true,
		RunE:         chat.RunE,
	}
	root.Flags().AddFlagSet(chat.Flags())

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (yaml, json, toml or .env)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(newVersionCmd())
	root.AddCommand(chat)
	root.AddCommand(newWebhookCmd(opts))
	root.AddCommand(newHistoryCmd(opts))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

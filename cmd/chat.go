package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/reserva-bot/internal/assistant"
	"github.com/example/reserva-bot/internal/chat"
	"github.com/example/reserva-bot/internal/config"
	"github.com/example/reserva-bot/internal/console"
	"github.com/example/reserva-bot/internal/db"
	"github.com/example/reserva-bot/internal/extract"
	"github.com/example/reserva-bot/internal/journal"
	rlog "github.com/example/reserva-bot/internal/log"
	"github.com/example/reserva-bot/internal/migrate"
	"github.com/example/reserva-bot/internal/poller"
	"github.com/example/reserva-bot/internal/transcript"
	"github.com/example/reserva-bot/internal/webhook"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var (
		transcriptPath string
		migrateUp      bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive reservation conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			logger, err := rlog.NewLogger(&cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			j, closeJournal := openJournal(ctx, cfg, migrateUp, logger.Logger)
			defer closeJournal()

			ac := assistant.New(
				assistant.Credentials{APIKey: cfg.Assistant.APIKey, AssistantID: cfg.Assistant.ID},
				assistant.Options{BaseURL: cfg.Assistant.BaseURL, Timeout: cfg.HTTP.Timeout, Retries: cfg.HTTP.Retries},
			)
			wh := webhook.New(cfg.Webhook.URL, cfg.HTTP.Timeout)

			ui := console.New(os.Stdin, cmd.OutOrStdout())
			ui.Banner("ASISTENTE DE RESERVAS DEL "+strings.ToUpper(cfg.Restaurant.Name),
				`Escribe "salir" o "exit" para terminar la conversación`)

			o := &chat.Orchestrator{
				Assistant: ac,
				Webhook:   wh,
				Journal:   j,
				UI:        ui,
				Turns: &poller.Poller{
					Client:   ac,
					Interval: cfg.Poll.Interval,
					MaxWait:  cfg.Poll.MaxWait,
					Logger:   logger.Logger,
				},
				Extractor: &extract.Extractor{
					Client: ac,
					Runs: &poller.Poller{
						Client:   ac,
						Interval: cfg.Extract.PollInterval,
						MaxPolls: cfg.Extract.MaxPolls,
						MaxWait:  cfg.Poll.MaxWait,
						Logger:   logger.Logger,
					},
					MaxRetries: cfg.Extract.MaxRetries,
					Logger:     logger.Logger,
				},
				AssistantName: cfg.Assistant.DisplayName,
				Restaurant:    cfg.Restaurant.Name,
				Location:      loc,
				Cost:          cfg.Submission.Cost,
				Logger:        logger.Logger,
			}

			s, runErr := o.Run(ctx)
			if transcriptPath != "" && s != nil {
				if err := transcript.WriteFile(transcriptPath, s.Transcript()); err != nil {
					logger.Error("chat: transcript export failed", "path", transcriptPath, "err", err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "transcript=%s\n", transcriptPath)
				}
			}
			if errors.Is(runErr, context.Canceled) {
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}
			if runErr != nil {
				return fmt.Errorf("chat aborted, no reservation was submitted: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "write the conversation to this YAML file when the chat ends")
	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run journal migrations on startup when database_url is set")
	return cmd
}

// openJournal connects the audit journal when a database is configured. A
// database that cannot be reached only disables the journal.
func openJournal(ctx context.Context, cfg config.Config, migrateUp bool, logger *slog.Logger) (journal.Journal, func()) {
	if cfg.DatabaseURL == "" {
		return journal.Nop{}, func() {}
	}
	d, err := openDB(ctx, cfg.DatabaseURL, migrateUp)
	if err != nil {
		logger.Warn("journal disabled", "err", err)
		return journal.Nop{}, func() {}
	}
	return journal.NewRepo(d), d.Close
}

func openDB(ctx context.Context, url string, migrateUp bool) (*db.DB, error) {
	d, err := db.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if migrateUp {
		if _, err := migrate.Up(ctx, d); err != nil {
			d.Close()
			return nil, err
		}
	}
	return d, nil
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/reserva-bot/internal/db"
	"github.com/example/reserva-bot/internal/journal"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		limit     int
		session   string
		migrateUp bool
	)

	c := &cobra.Command{
		Use:   "history",
		Short: "List reservations recorded in the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			ctx := context.Background()
			d, err := openDB(ctx, cfg.DatabaseURL, migrateUp)
			if err != nil {
				return err
			}
			defer d.Close()

			repo := journal.NewRepo(d)
			if session != "" {
				s, err := repo.SessionSubmission(ctx, session)
				if db.IsNotFound(err) {
					fmt.Fprintf(cmd.OutOrStdout(), "no reservation recorded for session %s\n", session)
					return nil
				}
				if err != nil {
					return err
				}
				printSubmission(cmd, s)
				return nil
			}

			subs, err := repo.ListSubmissions(ctx, limit)
			if err != nil {
				return err
			}
			for _, s := range subs {
				printSubmission(cmd, s)
			}
			return nil
		},
	}

	c.Flags().IntVar(&limit, "limit", 20, "maximum number of reservations to list")
	c.Flags().StringVar(&session, "session", "", "show the reservation submitted by one chat session")
	c.Flags().BoolVar(&migrateUp, "migrate", true, "run journal migrations first")
	return c
}

func printSubmission(cmd *cobra.Command, s journal.Submission) {
	fmt.Fprintf(cmd.OutOrStdout(), "id=%d at=%s session=%s name=%q date=%s time=%s guests=%s\n",
		s.ID, s.CreatedAt.Format(time.RFC3339), s.SessionID, s.CustomerName, s.Date, s.Time, s.Guests)
}

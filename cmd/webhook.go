package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/reserva-bot/internal/domain/reservation"
	"github.com/example/reserva-bot/internal/webhook"
)

func newWebhookCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Send test requests to the reservation workflow",
	}
	cmd.AddCommand(newWebhookCheckCmd(opts))
	cmd.AddCommand(newWebhookConfirmCmd(opts))
	return cmd
}

func newWebhookCheckCmd(opts *rootOptions) *cobra.Command {
	var (
		date   string
		hour   string
		guests int
	)

	c := &cobra.Command{
		Use:   "check",
		Short: "Ask the workflow for availability, the way the assistant's tool call does",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateWebhook(); err != nil {
				return err
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}
			if _, err := time.Parse("15:04", hour); err != nil {
				return fmt.Errorf("invalid --time (want HH:MM)")
			}
			if guests < 1 {
				return fmt.Errorf("--guests must be >= 1")
			}

			callArgs, err := json.Marshal(map[string]any{
				"reserva_fecha":     date,
				"hora":              hour,
				"reserva_invitados": guests,
			})
			if err != nil {
				return err
			}

			wh := webhook.New(cfg.Webhook.URL, cfg.HTTP.Timeout)
			raw, err := wh.PostAvailabilityCheck(context.Background(), "call_"+uuid.NewString(), callArgs)
			if err != nil {
				return err
			}
			res := reservation.ParseAvailability(raw)
			fmt.Fprintf(cmd.OutOrStdout(), "available=%t mesa_id=%s dispo_id=%s idmesa=%s\n", res.Available, res.TableID, res.SlotID, res.TableRef)
			if res.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "error=%s\n", res.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "raw=%s\n", res.Raw)
			return nil
		},
	}

	c.Flags().StringVar(&date, "date", "", "reservation date YYYY-MM-DD")
	c.Flags().StringVar(&hour, "time", "", "reservation time HH:MM")
	c.Flags().IntVar(&guests, "guests", 2, "party size")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}

func newWebhookConfirmCmd(opts *rootOptions) *cobra.Command {
	var e reservation.Extracted

	c := &cobra.Command{
		Use:   "confirm",
		Short: "Submit a reservation payload directly to the workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateWebhook(); err != nil {
				return err
			}
			if missing := e.Missing(); len(missing) > 0 {
				return fmt.Errorf("missing fields: %v", missing)
			}

			now := time.Now()
			sub := reservation.NewSubmission(e, now, now, cfg.Submission.Cost)
			resp, err := webhook.New(cfg.Webhook.URL, cfg.HTTP.Timeout).PostReservation(context.Background(), sub)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted summary=%q\nresponse=%s\n", sub.Message.Analysis.Summary, string(resp))
			return nil
		},
	}

	c.Flags().StringVar(&e.Date, "date", "", "reservation date YYYY-MM-DD")
	c.Flags().StringVar(&e.Time, "time", "", "reservation time HH:MM")
	c.Flags().StringVar(&e.Guests, "guests", "", "party size")
	c.Flags().StringVar(&e.Name, "name", "", "customer name")
	c.Flags().StringVar(&e.Phone, "phone", "", "customer phone")
	c.Flags().StringVar(&e.SpecialRequests, "requests", "", "special requests")
	c.Flags().StringVar(&e.TableID, "mesa-id", "", "table id from an availability check (idmesa_mesas)")
	c.Flags().StringVar(&e.SlotID, "dispo-id", "", "slot id from an availability check (idmesa_disp)")
	c.Flags().StringVar(&e.TableRef, "idmesa", "", "secondary table reference")
	return c
}

package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/amqp"
)

func newEventsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow record events published by the server",
		Long: `Consume record.created and record.deleted events from the configured
AMQP queue and print one line per event until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.cfg.AMQPEnabled() {
				return errors.New("AMQP_URL is not set")
			}
			client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
			if err != nil {
				return err
			}
			defer client.Close()

			a.logger.InfoContext(cmd.Context(), "Following record events",
				"exchange", a.cfg.AMQPExchange, "queue", a.cfg.AMQPQueue)

			err = client.ConsumeRecordEvents(cmd.Context(), printEvent(cmd.OutOrStdout()))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// printEvent writes one line per event. Events whose record does not decode
// are still printed so the queue keeps moving.
func printEvent(out io.Writer) func(context.Context, *amqp.RecordEvent) error {
	return func(_ context.Context, e *amqp.RecordEvent) error {
		stamp := e.Timestamp.Format(time.RFC3339)
		rec, err := e.Record()
		if err != nil {
			_, werr := fmt.Fprintf(out, "%s %-14s #%d unreadable record: %v\n", stamp, e.Type, e.ID, err)
			return werr
		}
		_, err = fmt.Fprintf(out, "%s %-14s #%d %s %s/%s %s\n",
			stamp, e.Type, rec.ID, rec.Month, rec.Category.Group(), rec.Category, rec.Amount)
		return err
	}
}

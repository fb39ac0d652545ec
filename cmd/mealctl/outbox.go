package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
)

func newOutboxCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Outbox inspection and recovery",
	}
	dlq := &cobra.Command{
		Use:   "dlq",
		Short: "Dead-lettered outbox events",
	}
	dlq.AddCommand(newDLQListCommand(env), newDLQRequeueCommand(env))
	cmd.AddCommand(dlq)
	return cmd
}

type dlqEntry struct {
	EventID      uuid.UUID `json:"event_id"`
	EventType    string    `json:"event_type"`
	AggregateID  uuid.UUID `json:"aggregate_id"`
	Reason       string    `json:"reason"`
	AttemptCount int       `json:"attempt_count"`
	Error        string    `json:"error,omitempty"`
	FailedAt     time.Time `json:"failed_at"`
}

func newDLQListCommand(env *environment) *cobra.Command {
	var (
		eventType string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the most recent dead-lettered events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if eventType != "" && !enums.OutboxEventType(eventType).IsValid() {
				return fmt.Errorf("invalid --type %q", eventType)
			}
			ctx := cmd.Context()
			_, _, client, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			rows, err := outbox.NewDLQRepository(client.DB()).List(ctx, eventType, limit)
			if err != nil {
				return err
			}
			entries := make([]dlqEntry, 0, len(rows))
			for _, row := range rows {
				entries = append(entries, toDLQEntry(row))
			}
			return env.emit(cmd.OutOrStdout(), entries, func(w io.Writer) error {
				return renderDLQ(w, entries)
			})
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "only show one event type")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}

func newDLQRequeueCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "requeue EVENT_ID...",
		Short: "Return dead-lettered events to the outbox with a fresh attempt budget",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, 0, len(args))
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("invalid event id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}

			ctx := cmd.Context()
			_, logg, client, err := env.database(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			repo := outbox.NewDLQRepository(client.DB())
			requeued := make([]uuid.UUID, 0, len(ids))
			err = client.WithTx(ctx, func(tx *gorm.DB) error {
				for _, id := range ids {
					ok, err := repo.RequeueTx(tx, id)
					if err != nil {
						return fmt.Errorf("requeue %s: %w", id, err)
					}
					if !ok {
						return fmt.Errorf("no dead-lettered event %s", id)
					}
					requeued = append(requeued, id)
				}
				return nil
			})
			if err != nil {
				return err
			}
			logg.Info(logg.WithField(ctx, "count", len(requeued)), "outbox events requeued")
			return env.emit(cmd.OutOrStdout(), map[string]any{"requeued": requeued}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%d event(s) requeued\n", len(requeued))
				return err
			})
		},
	}
}

func toDLQEntry(row models.OutboxDLQ) dlqEntry {
	entry := dlqEntry{
		EventID:      row.EventID,
		EventType:    string(row.EventType),
		AggregateID:  row.AggregateID,
		Reason:       string(row.ErrorReason),
		AttemptCount: row.AttemptCount,
		FailedAt:     row.FailedAt.UTC(),
	}
	if row.ErrorMessage != nil {
		entry.Error = *row.ErrorMessage
	}
	return entry
}

func renderDLQ(w io.Writer, entries []dlqEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EVENT\tTYPE\tREASON\tATTEMPTS\tFAILED AT\tERROR")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.EventID, e.EventType, e.Reason, e.AttemptCount, e.FailedAt.Format(time.RFC3339), e.Error)
	}
	return tw.Flush()
}

package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/registry"
)

const consumerName = "notifications"

// Receiver is the subset of *pubsub.Subscriber the consumer relies on.
type Receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// Consumer turns domain events and explicit notification requests into stored
// notifications, then hands each one to the push sender.
type Consumer struct {
	repo          Repository
	subscriptions []Receiver
	idempotency   *idempotency.Manager
	decoders      *registry.DecoderRegistry
	push          PushSender
	logg          *logger.Logger
}

// ConsumerParams groups the consumer dependencies.
type ConsumerParams struct {
	Repository    Repository
	Subscriptions []Receiver
	Idempotency   *idempotency.Manager
	Push          PushSender
	Logger        *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(params ConsumerParams) (*Consumer, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if len(params.Subscriptions) == 0 {
		return nil, fmt.Errorf("at least one subscription required")
	}
	for _, sub := range params.Subscriptions {
		if sub == nil {
			return nil, fmt.Errorf("subscription must not be nil")
		}
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	push := params.Push
	if push == nil {
		push = NewLogPushSender(params.Logger)
	}
	return &Consumer{
		repo:          params.Repository,
		subscriptions: params.Subscriptions,
		idempotency:   params.Idempotency,
		decoders:      NewDecoders(),
		push:          push,
		logg:          params.Logger,
	}, nil
}

// Run receives from every subscription until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for _, sub := range c.subscriptions {
		wg.Add(1)
		go func(sub Receiver) {
			defer wg.Done()
			err := sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
				if c.process(ctx, msg).nack {
					msg.Nack()
					return
				}
				msg.Ack()
			})
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(sub)
	}
	wg.Wait()
	return errs
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	envelope, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}
	eventID := envelope.EventID
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if errors.Is(err, registry.ErrNotRegistered) {
		c.logg.Info(logCtx, "skipping unhandled event")
		return processResult{ack: true}
	}
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}
	rows, _ := decoded.([]models.Notification)

	ran, err := c.idempotency.Guard(ctx, consumerName, eventID, func(ctx context.Context) error {
		return c.store(ctx, eventID, rows)
	})
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		return processResult{nack: true}
	}
	if !ran {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	for _, row := range rows {
		if err := c.push.Send(ctx, row); err != nil {
			c.logg.Warn(c.logg.WithFields(logCtx, map[string]any{
				"notification_id": row.ID.String(),
				"error":           err.Error(),
			}), "push delivery failed")
		}
	}

	logCtx = c.logg.WithField(logCtx, "notifications", len(rows))
	c.logg.Info(logCtx, "notifications stored")
	return processResult{ack: true}
}

func (c *Consumer) store(ctx context.Context, eventID uuid.UUID, rows []models.Notification) error {
	for i := range rows {
		id := eventID
		rows[i].EventID = &id
	}
	return c.repo.CreateBatch(ctx, rows)
}

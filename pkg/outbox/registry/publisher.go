package registry

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db/models"
	"github.com/angelmondragon/mealdash-backend/pkg/enums"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox"
	"github.com/angelmondragon/mealdash-backend/pkg/outbox/payloads"
)

// EventDescriptor routes one event type: the aggregate it must belong to,
// the topic it is published on and the payload it decodes into.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is an outbox row that passed routing and decoding.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks a row that would fail the same way on every
// attempt; the publisher dead-letters it instead of retrying.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func nonRetryable(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

type EventRegistry struct {
	routes map[enums.OutboxEventType]EventDescriptor
}

func route[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  aggregate,
		Topic:          topic,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry sends lifecycle events to the domain topic and explicit
// notification requests to the notification topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	switch {
	case cfg.DomainTopic == "":
		return nil, errors.New("domain topic is required")
	case cfg.NotificationTopic == "":
		return nil, errors.New("notification topic is required")
	}
	domain, notify := cfg.DomainTopic, cfg.NotificationTopic

	reg := &EventRegistry{routes: map[enums.OutboxEventType]EventDescriptor{}}
	reg.add(
		route[payloads.OrderCreatedEvent](enums.EventOrderCreated, enums.AggregateOrder, domain),
		route[payloads.OrderCanceledEvent](enums.EventOrderCanceled, enums.AggregateOrder, domain),
		route[payloads.OrderDeliveredEvent](enums.EventOrderDelivered, enums.AggregateOrder, domain),
		route[payloads.ScheduleStatusChangedEvent](enums.EventScheduleStatusChanged, enums.AggregateMealSchedule, domain),
		route[payloads.PartnerAssignedEvent](enums.EventPartnerAssigned, enums.AggregateMealSchedule, domain),
		route[payloads.SettlementRecordedEvent](enums.EventSettlementRecorded, enums.AggregateSettlement, domain),
		route[payloads.WalletDebitedEvent](enums.EventWalletDebited, enums.AggregateWallet, domain),
		route[payloads.NotificationRequestedEvent](enums.EventNotificationRequested, enums.AggregateNotification, notify),
	)
	return reg, nil
}

func (r *EventRegistry) add(descs ...EventDescriptor) {
	for _, desc := range descs {
		r.routes[desc.EventType] = desc
	}
}

// Topics lists the distinct destination topics in sorted order.
func (r *EventRegistry) Topics() []string {
	set := map[string]struct{}{}
	for _, desc := range r.routes {
		set[desc.Topic] = struct{}{}
	}
	topics := make([]string, 0, len(set))
	for topic := range set {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Resolve checks the row against its route and decodes the typed payload.
// Every failure is non-retryable.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.routes[event.EventType]
	switch {
	case !ok:
		return nil, nonRetryable("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, nonRetryable("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, nonRetryable("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, nonRetryable("decode envelope: %w", err)
	}
	if data := bytes.TrimSpace(envelope.Data); len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nonRetryable("payload missing for %s", event.EventType)
	}
	payload := desc.PayloadFactory()
	if err := envelope.DecodeData(payload); err != nil {
		return nil, nonRetryable("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}

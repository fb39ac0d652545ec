// Package idempotency deduplicates at-least-once deliveries per consumer.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/mealdash-backend/pkg/instance"
	"github.com/angelmondragon/mealdash-backend/pkg/redis"
)

const markerScope = "evt:processed:"

// Manager claims (consumer, event) pairs in redis. A claim lives for the
// configured TTL; a zero TTL keeps it until deleted.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Claim marks the event as handled by consumer. It reports false when another
// delivery claimed it first.
func (m *Manager) Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	return m.store.SetNX(ctx, key, instance.GetID(), m.ttl)
}

// Release drops a claim so the next delivery is handled again.
func (m *Manager) Release(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

// Processed reports whether a claim exists without taking one.
func (m *Manager) Processed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	holder, err := m.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return holder != "", nil
}

// Guard runs fn at most once per claim and reports whether it ran. A failing
// fn releases the claim so a redelivery retries it.
func (m *Manager) Guard(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error) {
	claimed, err := m.Claim(ctx, consumer, eventID)
	if err != nil || !claimed {
		return false, err
	}
	if err := fn(ctx); err != nil {
		return true, multierr.Append(err, m.Release(ctx, consumer, eventID))
	}
	return true, nil
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	switch {
	case consumer == "":
		return "", errors.New("consumer name is required")
	case eventID == uuid.Nil:
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey(markerScope+consumer, eventID.String()), nil
}

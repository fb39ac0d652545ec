package idempotency

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mealdash-backend/pkg/redis"
)

// memoryStore is a map-backed IdempotencyStore that records TTLs.
type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = value.(string)
	s.ttls[key] = ttl
	return true, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *memoryStore) IdempotencyKey(scope, id string) string {
	return "md:idempotency:" + scope + ":" + id
}

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	require.Error(t, err)
	_, err = NewManager(newMemoryStore(), -time.Second)
	require.Error(t, err)
}

func TestClaimIsExclusivePerConsumer(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	ok, err := manager.Claim(ctx, "notifications", eventID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = manager.Claim(ctx, "notifications", eventID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = manager.Claim(ctx, "analytics", eventID)
	require.NoError(t, err)
	require.True(t, ok)

	key := "md:idempotency:evt:processed:notifications:" + eventID.String()
	require.Contains(t, store.values, key)
	require.Equal(t, 24*time.Hour, store.ttls[key])
}

func TestClaimRequiresConsumerAndEvent(t *testing.T) {
	manager, err := NewManager(newMemoryStore(), time.Hour)
	require.NoError(t, err)

	_, err = manager.Claim(context.Background(), "", uuid.New())
	require.Error(t, err)
	_, err = manager.Claim(context.Background(), "notifications", uuid.Nil)
	require.Error(t, err)
}

func TestProcessedReadsWithoutClaiming(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	seen, err := manager.Processed(ctx, "notifications", eventID)
	require.NoError(t, err)
	require.False(t, seen)
	require.Empty(t, store.values)

	_, err = manager.Claim(ctx, "notifications", eventID)
	require.NoError(t, err)
	seen, err = manager.Processed(ctx, "notifications", eventID)
	require.NoError(t, err)
	require.True(t, seen)

	require.NoError(t, manager.Release(ctx, "notifications", eventID))
	seen, err = manager.Processed(ctx, "notifications", eventID)
	require.NoError(t, err)
	require.False(t, seen)
}

func TestGuardRunsOnceAndReleasesOnFailure(t *testing.T) {
	store := newMemoryStore()
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()
	eventID := uuid.New()

	ran, err := manager.Guard(ctx, "notifications", eventID, func(context.Context) error {
		return errors.New("store down")
	})
	require.True(t, ran)
	require.EqualError(t, err, "store down")
	require.Empty(t, store.values)

	calls := 0
	handler := func(context.Context) error {
		calls++
		return nil
	}
	ran, err = manager.Guard(ctx, "notifications", eventID, handler)
	require.NoError(t, err)
	require.True(t, ran)
	ran, err = manager.Guard(ctx, "notifications", eventID, handler)
	require.NoError(t, err)
	require.False(t, ran)
	require.Equal(t, 1, calls)
}

func TestGuardSurfacesStoreErrors(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	manager, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	ran, err := manager.Guard(context.Background(), "notifications", uuid.New(), func(context.Context) error {
		t.Fatal("handler must not run")
		return nil
	})
	require.False(t, ran)
	require.True(t, strings.Contains(err.Error(), "connection refused"))
}

package cron

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}}
}

func (m *memoryLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryLockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func (m *memoryLockStore) LockKey(name string) string { return "md:lock:" + name }

func TestRedisLockIsExclusive(t *testing.T) {
	store := newMemoryLockStore()
	first, err := NewRedisLock(store, "cron-worker:local", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "cron-worker:local", 0)
	require.NoError(t, err)
	require.Equal(t, "md:lock:cron-worker:local", first.Key())

	ctx := context.Background()
	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, second.Release(ctx))
	require.Contains(t, store.values, first.Key())

	require.NoError(t, first.Release(ctx))
	require.NotContains(t, store.values, first.Key())

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockLeavesForeignHolder(t *testing.T) {
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	store.values[lock.Key()] = "other-replica"
	require.NoError(t, lock.Release(ctx))
	require.Equal(t, "other-replica", store.values[lock.Key()])
}

func TestNewRedisLockValidates(t *testing.T) {
	_, err := NewRedisLock(nil, "cron", 0)
	require.Error(t, err)
	_, err = NewRedisLock(newMemoryLockStore(), "", 0)
	require.Error(t, err)
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := newMemoryLockStore()
	lock, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)

	ctx := context.Background()
	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	delete(store.values, lock.Key())
	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx), "second release is a no-op")
}

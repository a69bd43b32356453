package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (f *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockSingleHolder(t *testing.T) {
	store := newFakeRedisStore()
	first, err := NewRedisLock(store, "billing:lock:cycle", time.Hour)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "billing:lock:cycle", time.Hour)
	require.NoError(t, err)

	ctx := context.Background()
	held, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, held)

	held, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, held)

	require.NoError(t, first.Release(ctx))

	held, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, held)
}

func TestRedisLockReleaseLeavesForeignToken(t *testing.T) {
	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "billing:lock:cycle", time.Hour)
	require.NoError(t, err)

	ctx := context.Background()
	held, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, held)

	// Simulate TTL expiry followed by another worker claiming the key.
	store.values["billing:lock:cycle"] = "someone-else"
	require.NoError(t, lock.Release(ctx))
	require.Equal(t, "someone-else", store.values["billing:lock:cycle"])
}

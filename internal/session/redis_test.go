package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/school-portal/internal/events"
)

func newTestRedisStorage(t *testing.T, prefix string) *RedisStorage {
	t.Helper()
	addr := os.Getenv("PORTAL_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis tests: PORTAL_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(ctx).Err())

	s := NewRedisStorage(client, prefix, prefix+"changes", nil)
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStorageAcrossProcesses(t *testing.T) {
	prefix := "portal-test-" + uuid.NewString() + ":"
	first := newTestRedisStorage(t, prefix)
	second := newTestRedisStorage(t, prefix)
	ctx := context.Background()

	writer := newObserver(t, first, "browser", newFakeValidator(testStudent()))
	reader := newObserver(t, second, "browser", newFakeValidator())

	_, err := writer.Login(ctx, "alice@student.school.com", "secret")
	require.NoError(t, err)
	assert.Eventually(t, reader.IsAuthenticated, 3*time.Second, 20*time.Millisecond)

	writer.Logout(ctx)
	assert.Eventually(t, func() bool { return !reader.IsAuthenticated() }, 3*time.Second, 20*time.Millisecond)
}

func TestRedisStorageSetIsIdempotent(t *testing.T) {
	prefix := "portal-test-" + uuid.NewString() + ":"
	s := newTestRedisStorage(t, prefix)
	ctx := context.Background()

	calls := 0
	unwatch := s.Watch("ns", func(context.Context, events.Event) error {
		calls++
		return nil
	})
	defer unwatch()

	require.NoError(t, s.Set(ctx, "ns", "k", "v"))
	require.NoError(t, s.Set(ctx, "ns", "k", "v"))
	require.NoError(t, s.Delete(ctx, "ns", "k", "k"))
	t.Cleanup(func() { _ = s.Delete(context.Background(), "ns", "k") })

	val, ok, err := s.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, val)
	assert.Equal(t, 2, calls)
}

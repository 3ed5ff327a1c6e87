package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *countingSweeper) Sweep(idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, idle)
	return 1
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	_, err := NewSessionSweeper(&countingSweeper{}, "every tuesday", time.Minute, nil)
	assert.Error(t, err)
}

func TestSweeperRunOnceUsesIdle(t *testing.T) {
	target := &countingSweeper{}
	s, err := NewSessionSweeper(target, "@every 1h", 30*time.Minute, nil)
	require.NoError(t, err)

	s.RunOnce()
	require.Equal(t, 1, target.count())
	assert.Equal(t, 30*time.Minute, target.calls[0])
}

func TestSweeperDisabledWithoutIdle(t *testing.T) {
	target := &countingSweeper{}
	s, err := NewSessionSweeper(target, "not parsed", 0, nil)
	require.NoError(t, err)

	s.Start()
	s.RunOnce()
	s.Stop(context.Background())
	assert.Zero(t, target.count())
}

func TestSweeperRunsOnSchedule(t *testing.T) {
	target := &countingSweeper{}
	s, err := NewSessionSweeper(target, "@every 1s", time.Minute, nil)
	require.NoError(t, err)

	s.Start()
	defer s.Stop(context.Background())
	assert.Eventually(t, func() bool { return target.count() > 0 }, 3*time.Second, 50*time.Millisecond)
}

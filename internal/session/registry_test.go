package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/school-portal/internal/observability"
)

func TestRegistryReusesObserverPerNamespace(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry(NewMemoryStorage(), newFakeValidator(testStudent()), nil, observability.NewMetrics())
	defer r.Close()

	a := r.Observer(ctx, "one")
	assert.Same(t, a, r.Observer(ctx, "one"))
	assert.NotSame(t, a, r.Observer(ctx, "two"))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, StateUnauthenticated, a.State())
}

func TestRegistrySweepRetiresIdleObservers(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	r := NewRegistry(storage, newFakeValidator(testStudent()), nil, nil)
	defer r.Close()

	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	stale := r.Observer(ctx, "stale")
	_, err := stale.Login(ctx, "alice@student.school.com", "secret")
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	r.Observer(ctx, "fresh")

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())

	// The session outlives its observer.
	revived := r.Observer(ctx, "stale")
	assert.NotSame(t, stale, revived)
	assert.True(t, revived.IsAuthenticated())
}

// slowStorage holds the first Get until release is closed.
type slowStorage struct {
	Storage
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *slowStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	first := false
	s.once.Do(func() {
		first = true
		close(s.entered)
	})
	if first {
		<-s.release
	}
	return s.Storage.Get(ctx, namespace, key)
}

func TestRegistryWaitsForInitialRead(t *testing.T) {
	ctx := context.Background()
	memory := NewMemoryStorage()
	require.NoError(t, NewStore(memory, "browser", nil).Persist(ctx, testStudent()))

	storage := &slowStorage{Storage: memory, entered: make(chan struct{}), release: make(chan struct{})}
	r := NewRegistry(storage, newFakeValidator(), nil, nil)
	defer r.Close()

	go r.Observer(ctx, "browser")
	<-storage.entered

	second := make(chan *Observer, 1)
	go func() { second <- r.Observer(ctx, "browser") }()

	assert.Never(t, func() bool { return len(second) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	close(storage.release)

	var o *Observer
	select {
	case o = <-second:
	case <-time.After(2 * time.Second):
		t.Fatal("observer lookup did not return after the initial read")
	}
	view := o.View()
	assert.Equal(t, StateAuthenticated, view.State)
	assert.True(t, view.Authenticated)
	assert.False(t, view.Loading)
}

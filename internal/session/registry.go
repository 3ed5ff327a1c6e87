package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/school-portal/internal/observability"
)

type registryEntry struct {
	observer *Observer
	lastUsed time.Time
}

// Registry hands out one started Observer per client namespace and retires
// observers that have gone idle.
type Registry struct {
	storage   Storage
	validator CredentialValidator
	logger    *zap.Logger
	metrics   *observability.Metrics
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry(storage Storage, validator CredentialValidator, logger *zap.Logger, metrics *observability.Metrics) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		storage:   storage,
		validator: validator,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		entries:   make(map[string]*registryEntry),
	}
}

// Observer returns the namespace's observer, creating it on first use. It
// never returns before the observer's initial read has finished.
func (r *Registry) Observer(ctx context.Context, namespace string) *Observer {
	r.mu.Lock()
	entry, ok := r.entries[namespace]
	if ok {
		entry.lastUsed = r.now()
		r.mu.Unlock()
		// Blocks while the creating caller is still inside Start.
		entry.observer.Start(ctx)
		return entry.observer
	}
	store := NewStore(r.storage, namespace, r.logger)
	entry = &registryEntry{
		observer: NewObserver(store, r.validator, r.logger, r.metrics),
		lastUsed: r.now(),
	}
	r.entries[namespace] = entry
	count := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetObservers(count)
	entry.observer.Start(ctx)
	return entry.observer
}

// Sweep closes observers unused for longer than idle and returns how many
// were removed. The stored sessions are left alone.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var stale []*Observer
	for ns, entry := range r.entries {
		if entry.lastUsed.Before(cutoff) {
			stale = append(stale, entry.observer)
			delete(r.entries, ns)
		}
	}
	count := len(r.entries)
	r.mu.Unlock()

	for _, o := range stale {
		o.Close()
	}
	r.metrics.SetObservers(count)
	if len(stale) > 0 {
		r.logger.Debug("retired idle session observers", zap.Int("removed", len(stale)), zap.Int("remaining", count))
	}
	return len(stale)
}

// Len reports how many observers are live.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close shuts every observer down.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.observer.Close()
	}
	r.metrics.SetObservers(0)
}

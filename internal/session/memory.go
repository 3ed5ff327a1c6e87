package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/school-portal/internal/events"
)

// MemoryStorage keeps namespaces in process memory. Change notifications are
// delivered synchronously before the mutating call returns.
type MemoryStorage struct {
	mu         sync.RWMutex
	data       map[string]map[string]string
	dispatcher events.Dispatcher
}

// NewMemoryStorage returns an empty in-process storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		data:       make(map[string]map[string]string),
		dispatcher: events.NewInMemoryDispatcher(),
	}
}

// Get returns the value under key in namespace.
func (s *MemoryStorage) Get(_ context.Context, namespace, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[namespace][key]
	return val, ok, nil
}

// Set stores value and announces the change if the value differs.
func (s *MemoryStorage) Set(ctx context.Context, namespace, key, value string) error {
	s.mu.Lock()
	ns, ok := s.data[namespace]
	if !ok {
		ns = make(map[string]string)
		s.data[namespace] = ns
	}
	old, existed := ns[key]
	ns[key] = value
	s.mu.Unlock()

	if existed && old == value {
		return nil
	}
	s.announce(ctx, events.EventKeySet, namespace, key)
	return nil
}

// Delete removes keys, announcing each one that existed.
func (s *MemoryStorage) Delete(ctx context.Context, namespace string, keys ...string) error {
	removed := make([]string, 0, len(keys))
	s.mu.Lock()
	if ns, ok := s.data[namespace]; ok {
		for _, key := range keys {
			if _, exists := ns[key]; exists {
				delete(ns, key)
				removed = append(removed, key)
			}
		}
		if len(ns) == 0 {
			delete(s.data, namespace)
		}
	}
	s.mu.Unlock()

	for _, key := range removed {
		s.announce(ctx, events.EventKeyDeleted, namespace, key)
	}
	return nil
}

// Watch calls handler for every change in namespace until the returned func is called.
func (s *MemoryStorage) Watch(namespace string, handler events.EventHandler) func() {
	return s.dispatcher.Subscribe(namespace, handler)
}

func (s *MemoryStorage) announce(ctx context.Context, typ events.EventType, namespace, key string) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Topic:     namespace,
		Key:       key,
		Timestamp: time.Now().UTC(),
	})
}

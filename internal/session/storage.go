package session

import (
	"context"

	"github.com/spec-kit/school-portal/internal/events"
)

// Storage is durable key/value storage partitioned by client namespace. Every
// context sharing a namespace sees the same keys, and every effective change
// is announced to the namespace's watchers, including watchers in other
// processes when the backend is shared.
//
// Writes that do not change anything (setting the current value, deleting a
// missing key) announce nothing.
type Storage interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace string, keys ...string) error
	Watch(namespace string, handler events.EventHandler) (unwatch func())
}

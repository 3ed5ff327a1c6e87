package events

import (
	"context"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription per topic.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(topic string, handler EventHandler) (unsubscribe func())
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[string][]subscription
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[string][]subscription),
	}
}

// Publish synchronously invokes the handlers subscribed to the event topic.
// Handlers run outside the dispatcher lock, so they may publish or
// unsubscribe themselves.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	subs := append([]subscription{}, d.listeners[event.Topic]...)
	d.mu.RUnlock()

	var firstErr error
	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Subscribe registers a handler for the given topic.
func (d *inMemoryDispatcher) Subscribe(topic string, handler EventHandler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.listeners[topic] = append(d.listeners[topic], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { d.remove(topic, id) })
	}
}

func (d *inMemoryDispatcher) remove(topic string, id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	subs := d.listeners[topic]
	for i, sub := range subs {
		if sub.id == id {
			d.listeners[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(d.listeners[topic]) == 0 {
		delete(d.listeners, topic)
	}
}

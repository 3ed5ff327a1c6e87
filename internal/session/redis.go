package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/school-portal/internal/events"
)

// RedisStorage stores namespaces as Redis keys and fans change notifications
// out over a pub/sub channel so that every process sharing the Redis
// instance observes them. Local watchers are notified synchronously; echoes
// of this process's own messages are dropped.
type RedisStorage struct {
	client     *redis.Client
	prefix     string
	channel    string
	origin     string
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisStorage keeps sessions under prefix and publishes changes on channel.
func NewRedisStorage(client *redis.Client, prefix, channel string, logger *zap.Logger) *RedisStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStorage{
		client:     client,
		prefix:     prefix,
		channel:    channel,
		origin:     uuid.NewString(),
		dispatcher: events.NewInMemoryDispatcher(),
		logger:     logger,
	}
}

// Start subscribes to the change channel. It returns once Redis has
// confirmed the subscription.
func (s *RedisStorage) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pubsub != nil {
		return nil
	}

	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	s.pubsub = pubsub
	s.done = make(chan struct{})
	go s.listen(pubsub.Channel(), s.done)
	return nil
}

// Close stops listening for remote changes.
func (s *RedisStorage) Close() error {
	s.mu.Lock()
	pubsub, done := s.pubsub, s.done
	s.pubsub, s.done = nil, nil
	s.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}

func (s *RedisStorage) listen(ch <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range ch {
		var event events.Event
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			s.logger.Warn("dropping malformed session change", zap.Error(err))
			continue
		}
		if event.Origin == s.origin {
			continue
		}
		_ = s.dispatcher.Publish(context.Background(), event)
	}
}

func (s *RedisStorage) key(namespace, key string) string {
	return s.prefix + "session:" + namespace + ":" + key
}

// Get returns the value under key in namespace.
func (s *RedisStorage) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores value and publishes the change if the value differs.
func (s *RedisStorage) Set(ctx context.Context, namespace, key, value string) error {
	old, err := s.client.SetArgs(ctx, s.key(namespace, key), value, redis.SetArgs{Get: true}).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return err
	case old == value:
		return nil
	}
	return s.announce(ctx, events.EventKeySet, namespace, key)
}

// Delete removes keys and publishes each one that existed.
func (s *RedisStorage) Delete(ctx context.Context, namespace string, keys ...string) error {
	for _, key := range keys {
		n, err := s.client.Del(ctx, s.key(namespace, key)).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		if err := s.announce(ctx, events.EventKeyDeleted, namespace, key); err != nil {
			return err
		}
	}
	return nil
}

// Watch calls handler for local and remote changes in namespace.
func (s *RedisStorage) Watch(namespace string, handler events.EventHandler) func() {
	return s.dispatcher.Subscribe(namespace, handler)
}

func (s *RedisStorage) announce(ctx context.Context, typ events.EventType, namespace, key string) error {
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Topic:     namespace,
		Key:       key,
		Origin:    s.origin,
		Timestamp: time.Now().UTC(),
	}
	_ = s.dispatcher.Publish(ctx, event)

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		s.logger.Warn("publish session change", zap.String("namespace", namespace), zap.Error(err))
	}
	return nil
}

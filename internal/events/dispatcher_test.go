package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesOnlyTopicSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got []string

	d.Subscribe("ns-a", func(_ context.Context, e Event) error {
		got = append(got, "a:"+e.Key)
		return nil
	})
	d.Subscribe("ns-b", func(_ context.Context, e Event) error {
		got = append(got, "b:"+e.Key)
		return nil
	})

	_ = d.Publish(context.Background(), Event{Type: EventKeySet, Topic: "ns-a", Key: "auth_user"})
	assert.Equal(t, []string{"a:auth_user"}, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	unsubscribe := d.Subscribe("ns", func(context.Context, Event) error {
		calls++
		return nil
	})

	_ = d.Publish(context.Background(), Event{Topic: "ns"})
	unsubscribe()
	unsubscribe()
	_ = d.Publish(context.Background(), Event{Topic: "ns"})

	assert.Equal(t, 1, calls)
}

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	second := false

	d.Subscribe("ns", func(context.Context, Event) error { return boom })
	d.Subscribe("ns", func(context.Context, Event) error {
		second = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Topic: "ns"})
	assert.ErrorIs(t, err, boom)
	assert.True(t, second)
}

package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventKeySet     EventType = "key_set"
	EventKeyDeleted EventType = "key_deleted"
)

// Event represents a change to a key in a storage namespace. Topic is the
// namespace; subscribers of one namespace never see another's changes.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Topic     string    `json:"topic"`
	Key       string    `json:"key"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

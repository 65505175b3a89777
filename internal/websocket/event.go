package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeDeleted   EventType = "deleted"
	EventTypeRefreshed EventType = "refreshed"
	EventTypeErased    EventType = "erased"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeEntry     EntityType = "entry"
	EntityTypeRecurring EntityType = "recurring"
	EntityTypeGroup     EntityType = "group"
	EntityTypeTag       EntityType = "tag"
	EntityTypeFeed      EntityType = "feed"
	EntityTypeAccount   EntityType = "account"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "entry.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "entry"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EntryCreated creates an entry.created event
func EntryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeEntry, payload)
}

// EntryUpdated creates an entry.updated event
func EntryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeEntry, payload)
}

// EntryDeleted creates an entry.deleted event
func EntryDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeEntry, payload)
}

// RecurringCreated creates a recurring.created event
func RecurringCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeRecurring, payload)
}

// RecurringUpdated creates a recurring.updated event
func RecurringUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeRecurring, payload)
}

// GroupCreated creates a group.created event
func GroupCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeGroup, payload)
}

// GroupDeleted creates a group.deleted event
func GroupDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeGroup, payload)
}

// TagCreated creates a tag.created event
func TagCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTag, payload)
}

// TagUpdated creates a tag.updated event
func TagUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTag, payload)
}

// TagDeleted creates a tag.deleted event
func TagDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTag, payload)
}

// FeedRefreshed creates a feed.refreshed event. Clients re-fetch the
// projected feed when they receive it.
func FeedRefreshed() Event {
	return NewEvent(EventTypeRefreshed, EntityTypeFeed, nil)
}

// AccountErased creates an account.erased event
func AccountErased() Event {
	return NewEvent(EventTypeErased, EntityTypeAccount, nil)
}

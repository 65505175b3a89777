package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{
		"id":     "9f6a7c1e",
		"name":   "Groceries",
		"amount": "42.50",
	}

	before := time.Now()
	evt := NewEvent(EventTypeCreated, EntityTypeEntry, payload)
	after := time.Now()

	assert.Equal(t, "entry.created", evt.Type)
	assert.Equal(t, EntityTypeEntry, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_JSON_Serialization(t *testing.T) {
	fixedTime := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	payload := map[string]interface{}{
		"id":   "9f6a7c1e",
		"name": "Groceries",
	}

	evt := Event{
		Type:      "entry.created",
		Entity:    EntityTypeEntry,
		Payload:   payload,
		Timestamp: fixedTime,
	}

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "entry.created", decoded["type"])
	assert.Equal(t, "entry", decoded["entity"])
	assert.Equal(t, "2025-01-15T10:30:00Z", decoded["timestamp"])
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		evt      Event
		expected string
	}{
		{"entry created", EntryCreated(nil), "entry.created"},
		{"entry updated", EntryUpdated(nil), "entry.updated"},
		{"entry deleted", EntryDeleted(nil), "entry.deleted"},
		{"recurring created", RecurringCreated(nil), "recurring.created"},
		{"recurring updated", RecurringUpdated(nil), "recurring.updated"},
		{"group created", GroupCreated(nil), "group.created"},
		{"group deleted", GroupDeleted(nil), "group.deleted"},
		{"tag created", TagCreated(nil), "tag.created"},
		{"tag updated", TagUpdated(nil), "tag.updated"},
		{"tag deleted", TagDeleted(nil), "tag.deleted"},
		{"feed refreshed", FeedRefreshed(), "feed.refreshed"},
		{"account erased", AccountErased(), "account.erased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.evt.Type)
		})
	}
}

func TestNoOpPublisher(t *testing.T) {
	var p NoOpPublisher
	require.NotPanics(t, func() {
		p.Publish("auth0|alice", FeedRefreshed())
	})
}

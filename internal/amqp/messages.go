package amqp

import (
	"encoding/json"
	"time"
)

// ActivitySyncMessage asks the worker to mirror one activity to the
// supervisor spreadsheet. It carries only id and version; the worker reads
// the full row from the database.
type ActivitySyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivitySyncMessage creates a sync message for the given activity.
func NewActivitySyncMessage(id, version int64) *ActivitySyncMessage {
	return &ActivitySyncMessage{
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivitySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivitySyncMessageFromJSON creates a message from JSON bytes
func ActivitySyncMessageFromJSON(data []byte) (*ActivitySyncMessage, error) {
	var msg ActivitySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ActivityDeleteMessage notifies the worker that an activity was removed.
// It is wire-compatible with ActivitySyncMessage (version 0): the worker
// looks the id up, finds nothing, and acks.
type ActivityDeleteMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityDeleteMessage creates a delete message for the given activity.
func NewActivityDeleteMessage(id int64) *ActivityDeleteMessage {
	return &ActivityDeleteMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityDeleteMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

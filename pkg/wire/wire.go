// Package wire defines the JSON messages exchanged between the relay
// and its clients. Entity and trip payloads are opaque serialized
// records; the relay stores and forwards them without decoding.
package wire

import (
	"encoding/json"
	"fmt"

	"tripgraph/application/ports"
)

// Message types
const (
	// TypeState carries the full document state. The relay sends it
	// once per connection, on join.
	TypeState = "state"

	// TypeBatch carries one change batch in either direction.
	TypeBatch = "batch"
)

// Message is the envelope for all relay traffic.
type Message struct {
	Type string `json:"type"`

	// State payload
	Entities map[string]json.RawMessage `json:"entities,omitempty"`

	// Batch payload
	Put    map[string]json.RawMessage `json:"put,omitempty"`
	Delete []string                   `json:"delete,omitempty"`

	// Trip is shared by both payloads; nil means untouched (batch)
	// or absent (state).
	Trip json.RawMessage `json:"trip,omitempty"`
}

// NewStateMessage builds a full-state message
func NewStateMessage(entities map[string]json.RawMessage, trip json.RawMessage) *Message {
	return &Message{
		Type:     TypeState,
		Entities: entities,
		Trip:     trip,
	}
}

// NewBatchMessage wraps a document batch for transport
func NewBatchMessage(batch ports.Batch) *Message {
	return &Message{
		Type:   TypeBatch,
		Put:    batch.PutEntities,
		Delete: batch.DeleteEntities,
		Trip:   batch.Trip,
	}
}

// Batch converts a batch message back into a document batch
func (m *Message) Batch() ports.Batch {
	return ports.Batch{
		PutEntities:    m.Put,
		DeleteEntities: m.Delete,
		Trip:           m.Trip,
	}
}

// Decode parses one wire message and checks its type tag
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse wire message: %w", err)
	}
	switch msg.Type {
	case TypeState, TypeBatch:
		return &msg, nil
	default:
		return nil, fmt.Errorf("unknown wire message type %q", msg.Type)
	}
}

// Package ports declares the external capabilities the application layer
// consumes, keeping infrastructure dependencies pointing inward.
package ports

import "encoding/json"

// Batch groups entity puts/deletes and an optional trip write so they
// land as one externally-visible change on the shared document.
type Batch struct {
	// PutEntities maps entity id to its serialized record. Covers both
	// adds and overwrites; the document's own per-key merge policy
	// (assumed last-write-wins) resolves concurrent writers.
	PutEntities map[string]json.RawMessage

	// DeleteEntities lists entity ids to remove
	DeleteEntities []string

	// Trip replaces the trip record when non-nil
	Trip json.RawMessage
}

// IsEmpty checks whether the batch carries no changes
func (b Batch) IsEmpty() bool {
	return len(b.PutEntities) == 0 && len(b.DeleteEntities) == 0 && b.Trip == nil
}

// SharedDocument is the externally supplied, eventually consistent
// document the reconciler mirrors the local store onto. The capability
// is assumed to merge concurrent writes last-write-wins per key; change
// notifications fire on any local-or-remote mutation and carry no origin
// tag.
type SharedDocument interface {
	// EntityKeys enumerates the ids present in the entity collection
	EntityKeys() []string

	// GetEntity reads one serialized entity record
	GetEntity(id string) (json.RawMessage, bool)

	// GetTrip reads the serialized trip record
	GetTrip() (json.RawMessage, bool)

	// Apply commits the batch atomically
	Apply(batch Batch) error

	// Subscribe registers a change callback and returns an unsubscribe
	// function. The callback may fire for the subscriber's own writes;
	// echo suppression is the caller's concern.
	Subscribe(fn func()) func()
}

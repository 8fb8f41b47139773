package entities

import (
	"tripgraph/domain/core/valueobjects"
)

// Kind discriminates the two entity variants of the itinerary graph
type Kind string

const (
	KindPlace      Kind = "place"
	KindExperience Kind = "experience"
)

// Entity is the common surface of places and experiences. Both kinds form
// strict trees in their own parent namespace; the store, the traversal
// helpers and the sync codec operate on this interface.
type Entity interface {
	// EntityID returns the entity's unique identifier
	EntityID() valueobjects.EntityID

	// EntityKind returns the entity variant
	EntityKind() Kind

	// Parent returns the parent id, or nil for roots. The parent always
	// refers to an entity of the same kind.
	Parent() *valueobjects.EntityID

	// SortKey returns the ordering key among siblings
	SortKey() int

	// DisplayName returns the entity's name
	DisplayName() string

	// Reposition returns a copy with the given parent and sort key.
	// The receiver is not modified.
	Reposition(parent *valueobjects.EntityID, order int) Entity
}

// cloneParent copies a nullable parent reference so snapshots never share
// pointer state with their predecessors.
func cloneParent(id *valueobjects.EntityID) *valueobjects.EntityID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

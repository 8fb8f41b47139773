package aggregates

import (
	"tripgraph/domain/core/entities"
	"tripgraph/domain/core/valueobjects"
)

// Snapshot is an immutable view of the itinerary's entity collection and
// trip record. Every store mutation produces a fresh snapshot; a snapshot
// reference is therefore the unit of change detection for the sync layer.
//
// Entities held by a snapshot must never be mutated in place. All write
// paths clone before modifying.
type Snapshot struct {
	entities map[valueobjects.EntityID]entities.Entity
	trip     *entities.Trip
}

// NewSnapshot builds a snapshot from an entity list and trip record.
// Used by the store's hydrate path and by tests.
func NewSnapshot(list []entities.Entity, trip *entities.Trip) *Snapshot {
	m := make(map[valueobjects.EntityID]entities.Entity, len(list))
	for _, e := range list {
		m[e.EntityID()] = e
	}
	return &Snapshot{entities: m, trip: trip}
}

// emptySnapshot is the zero state of a freshly constructed store
func emptySnapshot() *Snapshot {
	return &Snapshot{entities: map[valueobjects.EntityID]entities.Entity{}}
}

// Entity retrieves an entity by id
func (s *Snapshot) Entity(id valueobjects.EntityID) (entities.Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Entities returns all entities in the snapshot. The slice is fresh but
// the elements are the snapshot's own (immutable) entities.
func (s *Snapshot) Entities() []entities.Entity {
	list := make([]entities.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		list = append(list, e)
	}
	return list
}

// Len returns the number of entities
func (s *Snapshot) Len() int {
	return len(s.entities)
}

// Trip returns the trip record, or nil when no trip is loaded
func (s *Snapshot) Trip() *entities.Trip {
	return s.trip
}

// cloneEntities copies the entity map for a copy-on-write mutation
func (s *Snapshot) cloneEntities() map[valueobjects.EntityID]entities.Entity {
	m := make(map[valueobjects.EntityID]entities.Entity, len(s.entities))
	for k, v := range s.entities {
		m[k] = v
	}
	return m
}

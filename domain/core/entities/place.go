package entities

import (
	"time"

	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// Place is a location node in the itinerary graph. Places form a strict
// tree: ParentID refers to another place or is nil for roots.
type Place struct {
	ID        valueobjects.EntityID
	TripID    valueobjects.TripID
	Name      string
	ParentID  *valueobjects.EntityID
	Coords    *valueobjects.Coordinates
	SortOrder int
	CreatedAt time.Time
	CreatedBy string
}

// NewPlace creates a place with a fresh identifier and timestamp
func NewPlace(tripID valueobjects.TripID, name string, parentID *valueobjects.EntityID, createdBy string) (*Place, error) {
	if tripID.IsZero() {
		return nil, pkgerrors.NewValidationError("tripID is required")
	}
	if name == "" {
		return nil, pkgerrors.NewValidationError("place name cannot be empty")
	}

	return &Place{
		ID:        valueobjects.NewEntityID(),
		TripID:    tripID,
		Name:      name,
		ParentID:  cloneParent(parentID),
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}, nil
}

// EntityID returns the place's unique identifier
func (p *Place) EntityID() valueobjects.EntityID {
	return p.ID
}

// EntityKind returns KindPlace
func (p *Place) EntityKind() Kind {
	return KindPlace
}

// Parent returns the parent place id, or nil for roots
func (p *Place) Parent() *valueobjects.EntityID {
	return p.ParentID
}

// SortKey returns the ordering key among siblings
func (p *Place) SortKey() int {
	return p.SortOrder
}

// DisplayName returns the place name
func (p *Place) DisplayName() string {
	return p.Name
}

// Clone returns a deep copy of the place
func (p *Place) Clone() *Place {
	c := *p
	c.ParentID = cloneParent(p.ParentID)
	if p.Coords != nil {
		coords := *p.Coords
		c.Coords = &coords
	}
	return &c
}

// Reposition returns a copy with the given parent and sort key
func (p *Place) Reposition(parent *valueobjects.EntityID, order int) Entity {
	c := p.Clone()
	c.ParentID = cloneParent(parent)
	c.SortOrder = order
	return c
}

// PlacePatch carries a partial update for a place. Nil pointer fields are
// left unchanged; the Clear flags null out the corresponding nullable field.
type PlacePatch struct {
	Name        *string
	Coords      *valueobjects.Coordinates
	ClearCoords bool
	ParentID    *valueobjects.EntityID
	ClearParent bool
	SortOrder   *int
}

// ApplyPatch returns a copy of the place with the patch merged in
func (p *Place) ApplyPatch(patch PlacePatch) *Place {
	c := p.Clone()
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.ClearCoords {
		c.Coords = nil
	} else if patch.Coords != nil {
		coords := *patch.Coords
		c.Coords = &coords
	}
	if patch.ClearParent {
		c.ParentID = nil
	} else if patch.ParentID != nil {
		c.ParentID = cloneParent(patch.ParentID)
	}
	if patch.SortOrder != nil {
		c.SortOrder = *patch.SortOrder
	}
	return c
}

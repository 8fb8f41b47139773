package entities

import (
	"time"

	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// Experience is an activity node in the itinerary graph. Experiences form
// their own strict tree, separate from the place tree, and additionally
// hold a many-to-many association to places via PlaceIDs.
//
// Amount marks the financial role of the node: a non-nil amount makes the
// experience an expense leaf in cost views, a nil amount makes it a
// structural or unscheduled node.
type Experience struct {
	ID        valueobjects.EntityID
	TripID    valueobjects.TripID
	Name      string
	ParentID  *valueobjects.EntityID
	PlaceIDs  []valueobjects.EntityID
	Schedule  *valueobjects.Schedule
	Amount    *float64
	Currency  string
	SortOrder int
	CreatedAt time.Time
	CreatedBy string
}

// NewExperience creates an experience with a fresh identifier and timestamp
func NewExperience(tripID valueobjects.TripID, name string, parentID *valueobjects.EntityID, createdBy string) (*Experience, error) {
	if tripID.IsZero() {
		return nil, pkgerrors.NewValidationError("tripID is required")
	}
	if name == "" {
		return nil, pkgerrors.NewValidationError("experience name cannot be empty")
	}

	return &Experience{
		ID:        valueobjects.NewEntityID(),
		TripID:    tripID,
		Name:      name,
		ParentID:  cloneParent(parentID),
		PlaceIDs:  []valueobjects.EntityID{},
		CreatedAt: time.Now().UTC(),
		CreatedBy: createdBy,
	}, nil
}

// EntityID returns the experience's unique identifier
func (e *Experience) EntityID() valueobjects.EntityID {
	return e.ID
}

// EntityKind returns KindExperience
func (e *Experience) EntityKind() Kind {
	return KindExperience
}

// Parent returns the parent experience id, or nil for roots
func (e *Experience) Parent() *valueobjects.EntityID {
	return e.ParentID
}

// SortKey returns the ordering key among siblings
func (e *Experience) SortKey() int {
	return e.SortOrder
}

// DisplayName returns the experience name
func (e *Experience) DisplayName() string {
	return e.Name
}

// IsExpense checks whether the experience carries an amount
func (e *Experience) IsExpense() bool {
	return e.Amount != nil
}

// LinksPlace checks whether the experience is associated with the place
func (e *Experience) LinksPlace(placeID valueobjects.EntityID) bool {
	for _, id := range e.PlaceIDs {
		if id.Equals(placeID) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the experience
func (e *Experience) Clone() *Experience {
	c := *e
	c.ParentID = cloneParent(e.ParentID)
	c.PlaceIDs = make([]valueobjects.EntityID, len(e.PlaceIDs))
	copy(c.PlaceIDs, e.PlaceIDs)
	if e.Schedule != nil {
		sched := *e.Schedule
		c.Schedule = &sched
	}
	if e.Amount != nil {
		amount := *e.Amount
		c.Amount = &amount
	}
	return &c
}

// Reposition returns a copy with the given parent and sort key
func (e *Experience) Reposition(parent *valueobjects.EntityID, order int) Entity {
	c := e.Clone()
	c.ParentID = cloneParent(parent)
	c.SortOrder = order
	return c
}

// ExperiencePatch carries a partial update for an experience. Nil pointer
// fields are left unchanged; the Clear flags null out the corresponding
// nullable field.
type ExperiencePatch struct {
	Name          *string
	PlaceIDs      *[]valueobjects.EntityID
	Schedule      *valueobjects.Schedule
	ClearSchedule bool
	Amount        *float64
	ClearAmount   bool
	Currency      *string
	ParentID      *valueobjects.EntityID
	ClearParent   bool
	SortOrder     *int
}

// ApplyPatch returns a copy of the experience with the patch merged in
func (e *Experience) ApplyPatch(patch ExperiencePatch) *Experience {
	c := e.Clone()
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.PlaceIDs != nil {
		c.PlaceIDs = make([]valueobjects.EntityID, len(*patch.PlaceIDs))
		copy(c.PlaceIDs, *patch.PlaceIDs)
	}
	if patch.ClearSchedule {
		c.Schedule = nil
	} else if patch.Schedule != nil {
		sched := *patch.Schedule
		c.Schedule = &sched
	}
	if patch.ClearAmount {
		c.Amount = nil
	} else if patch.Amount != nil {
		amount := *patch.Amount
		c.Amount = &amount
	}
	if patch.Currency != nil {
		c.Currency = *patch.Currency
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

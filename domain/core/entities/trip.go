package entities

import (
	"time"

	"tripgraph/domain/core/valueobjects"
	pkgerrors "tripgraph/pkg/errors"
)

// DateRange spans the trip's calendar window, inclusive on both ends
type DateRange struct {
	Start string // YYYY-MM-DD
	End   string // YYYY-MM-DD
}

// Collaborator is a user with access to the trip
type Collaborator struct {
	UserID string
	Name   string
}

// Trip is the singleton record for one editing session. All places and
// experiences in the store belong to exactly one trip.
type Trip struct {
	ID            valueobjects.TripID
	Name          string
	DateRange     DateRange
	Timezone      string
	CreatedAt     time.Time
	CreatedBy     string
	Collaborators []Collaborator
}

// NewTrip creates a trip with a fresh identifier and timestamp
func NewTrip(name string, dateRange DateRange, timezone, createdBy string) (*Trip, error) {
	if name == "" {
		return nil, pkgerrors.NewValidationError("trip name cannot be empty")
	}
	if _, err := time.Parse("2006-01-02", dateRange.Start); err != nil {
		return nil, pkgerrors.NewValidationError("trip start date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("2006-01-02", dateRange.End); err != nil {
		return nil, pkgerrors.NewValidationError("trip end date must be YYYY-MM-DD")
	}
	if dateRange.End < dateRange.Start {
		return nil, pkgerrors.NewValidationError("trip end date cannot precede start date")
	}
	if timezone == "" {
		return nil, pkgerrors.NewValidationError("trip timezone cannot be empty")
	}

	return &Trip{
		ID:            valueobjects.NewTripID(),
		Name:          name,
		DateRange:     dateRange,
		Timezone:      timezone,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     createdBy,
		Collaborators: []Collaborator{},
	}, nil
}

// Clone returns a deep copy of the trip
func (t *Trip) Clone() *Trip {
	c := *t
	c.Collaborators = make([]Collaborator, len(t.Collaborators))
	copy(c.Collaborators, t.Collaborators)
	return &c
}

// TripPatch carries a partial update for the trip record
type TripPatch struct {
	Name          *string
	DateRange     *DateRange
	Timezone      *string
	Collaborators *[]Collaborator
}

// ApplyPatch returns a copy of the trip with the patch merged in
func (t *Trip) ApplyPatch(patch TripPatch) *Trip {
	c := t.Clone()
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.DateRange != nil {
		c.DateRange = *patch.DateRange
	}
	if patch.Timezone != nil {
		c.Timezone = *patch.Timezone
	}
	if patch.Collaborators != nil {
		c.Collaborators = make([]Collaborator, len(*patch.Collaborators))
		copy(c.Collaborators, *patch.Collaborators)
	}
	return c
}

package valueobjects

import (
	"strings"

	pkgerrors "tripgraph/pkg/errors"

	"github.com/google/uuid"
)

// EntityID is a value object identifying a place or an experience.
// Places and experiences share one identifier namespace so that selection,
// highlighting and the shared document can refer to either kind uniformly.
type EntityID struct {
	value string
}

// NewEntityID creates a new random EntityID
func NewEntityID() EntityID {
	return EntityID{value: uuid.New().String()}
}

// NewEntityIDFromString creates an EntityID from an existing string
func NewEntityIDFromString(s string) (EntityID, error) {
	if s == "" {
		return EntityID{}, pkgerrors.NewValidationError("entity ID cannot be empty")
	}

	if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
		return EntityID{}, pkgerrors.NewValidationError("entity ID must be a valid UUID")
	}

	return EntityID{value: s}, nil
}

// String returns the string representation
func (id EntityID) String() string {
	return id.value
}

// IsZero checks whether the ID is unset
func (id EntityID) IsZero() bool {
	return id.value == ""
}

// Equals checks if two entity IDs are equal
func (id EntityID) Equals(other EntityID) bool {
	return id.value == other.value
}

// TripID identifies a trip
type TripID struct {
	value string
}

// NewTripID creates a new random TripID
func NewTripID() TripID {
	return TripID{value: uuid.New().String()}
}

// NewTripIDFromString creates a TripID from an existing string
func NewTripIDFromString(s string) (TripID, error) {
	if s == "" {
		return TripID{}, pkgerrors.NewValidationError("trip ID cannot be empty")
	}

	if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
		return TripID{}, pkgerrors.NewValidationError("trip ID must be a valid UUID")
	}

	return TripID{value: s}, nil
}

// String returns the string representation
func (id TripID) String() string {
	return id.value
}

// IsZero checks whether the ID is unset
func (id TripID) IsZero() bool {
	return id.value == ""
}

// Equals checks if two trip IDs are equal
func (id TripID) Equals(other TripID) bool {
	return id.value == other.value
}

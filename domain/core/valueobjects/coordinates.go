package valueobjects

import (
	"math"

	pkgerrors "tripgraph/pkg/errors"
)

// Coordinates is a value object representing a geographic position
type Coordinates struct {
	lat float64
	lng float64
}

// NewCoordinates creates coordinates with validation
func NewCoordinates(lat, lng float64) (Coordinates, error) {
	if !isFinite(lat) || !isFinite(lng) {
		return Coordinates{}, pkgerrors.NewValidationError("coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 {
		return Coordinates{}, pkgerrors.NewValidationError("latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return Coordinates{}, pkgerrors.NewValidationError("longitude must be between -180 and 180")
	}
	return Coordinates{lat: lat, lng: lng}, nil
}

// Lat returns the latitude
func (c Coordinates) Lat() float64 {
	return c.lat
}

// Lng returns the longitude
func (c Coordinates) Lng() float64 {
	return c.lng
}

// Equals checks if two coordinate pairs are equal
func (c Coordinates) Equals(other Coordinates) bool {
	const epsilon = 1e-9
	return math.Abs(c.lat-other.lat) < epsilon &&
		math.Abs(c.lng-other.lng) < epsilon
}

// isFinite checks if a coordinate is a valid finite number
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

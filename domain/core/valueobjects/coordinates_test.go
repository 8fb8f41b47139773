package valueobjects

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "valid", lat: 35.6762, lng: 139.6503},
		{name: "boundary latitude", lat: 90, lng: 0},
		{name: "boundary longitude", lat: 0, lng: -180},
		{name: "latitude out of range", lat: 91, lng: 0, wantErr: true},
		{name: "longitude out of range", lat: 0, lng: 181, wantErr: true},
		{name: "NaN", lat: math.NaN(), lng: 0, wantErr: true},
		{name: "infinite", lat: 0, lng: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCoordinates(tt.lat, tt.lng)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, c.Lat())
			assert.Equal(t, tt.lng, c.Lng())
		})
	}
}

func TestCoordinatesEquals(t *testing.T) {
	a, err := NewCoordinates(35.6762, 139.6503)
	require.NoError(t, err)
	b, err := NewCoordinates(35.6762, 139.6503)
	require.NoError(t, err)
	c, err := NewCoordinates(48.8566, 2.3522)
	require.NoError(t, err)

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

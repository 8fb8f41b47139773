package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchedule(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		timeOfDay string
		timezone string
		wantErr  bool
	}{
		{name: "timed entry", date: "2026-04-12", timeOfDay: "09:30", timezone: "Asia/Tokyo"},
		{name: "all-day entry", date: "2026-04-12", timeOfDay: "", timezone: "Asia/Tokyo"},
		{name: "bad date", date: "12/04/2026", timeOfDay: "", timezone: "Asia/Tokyo", wantErr: true},
		{name: "bad time", date: "2026-04-12", timeOfDay: "9am", timezone: "Asia/Tokyo", wantErr: true},
		{name: "missing timezone", date: "2026-04-12", timeOfDay: "", timezone: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSchedule(tt.date, tt.timeOfDay, tt.timezone)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.date, s.Date())
			assert.Equal(t, tt.timeOfDay, s.TimeOfDay())
			assert.Equal(t, tt.timeOfDay != "", s.HasTime())
		})
	}
}

func TestScheduleMinutesOfDay(t *testing.T) {
	timed, err := NewSchedule("2026-04-12", "09:30", "Asia/Tokyo")
	require.NoError(t, err)
	allDay, err := NewSchedule("2026-04-12", "", "Asia/Tokyo")
	require.NoError(t, err)

	assert.Equal(t, 9*60+30, timed.MinutesOfDay())

	// All-day entries sort after any timed entry
	assert.Greater(t, allDay.MinutesOfDay(), 24*60)
}

package choose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/resolver"
)

func slot(day, hour int) models.TimeSlot {
	start := time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
	return models.TimeSlot{Start: start, End: start.Add(time.Hour)}
}

func TestFormatSlot(t *testing.T) {
	assert.Equal(t, "Mon 10 Mar 13:00-14:00", FormatSlot(slot(10, 13), time.UTC))
}

func TestOptions(t *testing.T) {
	o := &resolver.Outcome{
		Candidate:   models.Candidate{Title: "Gym"},
		Suggestions: []models.TimeSlot{slot(10, 13), slot(11, 9)},
	}
	opts := Options(o, time.UTC)
	require.Len(t, opts, 4)
	assert.Equal(t, "0", opts[0].Value)
	assert.Equal(t, "Tue 11 Mar 09:00-10:00", opts[1].Key)
	assert.Equal(t, manualValue, opts[2].Value)
	assert.Equal(t, abandonValue, opts[3].Value)
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		value   string
		want    Choice
		wantErr bool
	}{
		{"0", Choice{Action: ActionSlot, Slot: 0}, false},
		{"2", Choice{Action: ActionSlot, Slot: 2}, false},
		{"3", Choice{}, true},
		{"-1", Choice{}, true},
		{manualValue, Choice{Action: ActionManual}, false},
		{abandonValue, Choice{Action: ActionAbandon}, false},
		{"", Choice{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseChoice(tt.value, 3)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseManual(t *testing.T) {
	start, end, err := ParseManual("2025-03-10", "14:00", "15:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 90*time.Minute, end.Sub(start))

	start, end, err = ParseManual("2025-03-10", "23:00", "00:30", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC), end)
	assert.True(t, end.After(start))

	_, _, err = ParseManual("10/03/2025", "14:00", "15:00", time.UTC)
	assert.Error(t, err)
	assert.Error(t, validateClock("2pm"))
	assert.NoError(t, validateClock(" 09:15 "))
}

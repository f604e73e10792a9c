package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/flowmind/internal/constants"
)

func TestMapToSettingsDefaultsBooleansToTrue(t *testing.T) {
	s, err := MapToSettings(map[string]string{})
	require.NoError(t, err)

	assert.True(t, s.NotificationsEnabled)
	assert.True(t, s.PlayFocusEndSound)
	assert.True(t, s.PlayBreakEndSound)
}

func TestMapToSettingsRoundTrip(t *testing.T) {
	in := Settings{
		Timezone:          "Europe/London",
		PlayFocusEndSound: false,
		PlayBreakEndSound: true,
		FocusEndSound:     "/tmp/focus.mp3",
		BreakEndSound:     "/tmp/break.mp3",
		SoundPlayer:       "afplay",
		SuggestionCount:   4,
		SearchHorizonDays: 7,
		InterpreterModel:  "gemini-test",
	}

	out, err := MapToSettings(SettingsToMap(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestMapToSettingsRejectsBadInteger(t *testing.T) {
	_, err := MapToSettings(map[string]string{constants.SettingSuggestionCount: "three"})
	assert.ErrorContains(t, err, "suggestion_count")
}

func TestApplyDefaultSettings(t *testing.T) {
	s := Settings{SuggestionCount: 5}
	ApplyDefaultSettings(&s)

	assert.Equal(t, constants.DefaultTimezone, s.Timezone)
	assert.Equal(t, 5, s.SuggestionCount)
	assert.Equal(t, constants.DefaultSearchHorizonDays, s.SearchHorizonDays)
	assert.Equal(t, constants.DefaultAlarmSound, s.FocusEndSound)
	assert.Equal(t, constants.DefaultSoundPlayer, s.SoundPlayer)
	assert.Equal(t, constants.DefaultInterpreterModel, s.InterpreterModel)
}

package models

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/flowmind/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Boolean flags that are absent from data keep their default of true.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{
		NotificationsEnabled: constants.DefaultNotificationsEnabled,
		PlayFocusEndSound:    constants.DefaultPlayFocusEndSound,
		PlayBreakEndSound:    constants.DefaultPlayBreakEndSound,
	}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingPlayFocusEndSound:
			settings.PlayFocusEndSound = value == "true"
		case constants.SettingPlayBreakEndSound:
			settings.PlayBreakEndSound = value == "true"
		case constants.SettingFocusEndSound:
			settings.FocusEndSound = value
		case constants.SettingBreakEndSound:
			settings.BreakEndSound = value
		case constants.SettingSoundPlayer:
			settings.SoundPlayer = value
		case constants.SettingSuggestionCount:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing suggestion_count: %w", err)
			}
			settings.SuggestionCount = n
		case constants.SettingSearchHorizonDays:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing search_horizon_days: %w", err)
			}
			settings.SearchHorizonDays = n
		case constants.SettingInterpreterModel:
			settings.InterpreterModel = value
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:             settings.Timezone,
		constants.SettingNotificationsEnabled: strconv.FormatBool(settings.NotificationsEnabled),
		constants.SettingPlayFocusEndSound:    strconv.FormatBool(settings.PlayFocusEndSound),
		constants.SettingPlayBreakEndSound:    strconv.FormatBool(settings.PlayBreakEndSound),
		constants.SettingFocusEndSound:        settings.FocusEndSound,
		constants.SettingBreakEndSound:        settings.BreakEndSound,
		constants.SettingSoundPlayer:          settings.SoundPlayer,
		constants.SettingSuggestionCount:      strconv.Itoa(settings.SuggestionCount),
		constants.SettingSearchHorizonDays:    strconv.Itoa(settings.SearchHorizonDays),
		constants.SettingInterpreterModel:     settings.InterpreterModel,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.FocusEndSound == "" {
		settings.FocusEndSound = constants.DefaultAlarmSound
	}
	if settings.BreakEndSound == "" {
		settings.BreakEndSound = constants.DefaultAlarmSound
	}
	if settings.SoundPlayer == "" {
		settings.SoundPlayer = constants.DefaultSoundPlayer
	}
	if settings.SuggestionCount <= 0 {
		settings.SuggestionCount = constants.DefaultSuggestionCount
	}
	if settings.SearchHorizonDays <= 0 {
		settings.SearchHorizonDays = constants.DefaultSearchHorizonDays
	}
	if settings.InterpreterModel == "" {
		settings.InterpreterModel = constants.DefaultInterpreterModel
	}
}

package constants

const (
	// General Settings
	SettingTimezone             = "timezone"
	SettingNotificationsEnabled = "notifications_enabled"

	// Focus Settings
	SettingPlayFocusEndSound = "play_focus_end_sound"
	SettingPlayBreakEndSound = "play_break_end_sound"
	SettingFocusEndSound     = "focus_end_sound"
	SettingBreakEndSound     = "break_end_sound"
	SettingSoundPlayer       = "sound_player"

	// Scheduling Settings
	SettingSuggestionCount   = "suggestion_count"
	SettingSearchHorizonDays = "search_horizon_days"
	SettingInterpreterModel  = "interpreter_model"

	// Default Settings Values
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultNotificationsEnabled = true
	DefaultPlayFocusEndSound    = true
	DefaultPlayBreakEndSound    = true
	DefaultAlarmSound           = "https://www.dropbox.com/scl/fi/4weoragikbg2q96agaxdc/Bedside-Clock-Alarm.mp3?rlkey=nmbi5zgqtl7xconrb729k9csz&dl=1"
	DefaultSoundPlayer          = "ffplay -nodisp -autoexit -loglevel quiet"
)

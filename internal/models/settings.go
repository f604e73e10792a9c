package models

// Settings represents application-wide settings
type Settings struct {
	Timezone             string `json:"timezone"`              // IANA timezone name, or "Local" for the system timezone
	NotificationsEnabled bool   `json:"notifications_enabled"` // whether desktop notifications are sent
	PlayFocusEndSound    bool   `json:"play_focus_end_sound"`  // whether a sound plays when a focus phase ends
	PlayBreakEndSound    bool   `json:"play_break_end_sound"`  // whether a sound plays when a break ends
	FocusEndSound        string `json:"focus_end_sound"`       // sound URL or file played after focus
	BreakEndSound        string `json:"break_end_sound"`       // sound URL or file played after a break
	SoundPlayer          string `json:"sound_player"`          // command line used to play sounds
	SuggestionCount      int    `json:"suggestion_count"`      // max slots offered when a candidate conflicts
	SearchHorizonDays    int    `json:"search_horizon_days"`   // days searched for free slots
	InterpreterModel     string `json:"interpreter_model"`     // model used for free-text interpretation
}

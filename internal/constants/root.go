package constants

import "time"

const (
	AppName            = "flowmind"
	DefaultKeyringUser = "database-connection"
	APIKeyKeyringUser  = "interpreter-api-key"
	DefaultConfigPath  = "~/.config/flowmind/flowmind.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DateTimeFormat is used when a date and time are entered together on the command line
	DateTimeFormat = "2006-01-02 15:04"

	// ProjectedIDMarker separates the anchor ID from the date in synthetic IDs
	ProjectedIDMarker = "-projected-"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "flowmind-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.flowmind"
	NotificationTag        = "flowmind-focus-session"

	// Focus session constants
	FocusBlock        = 25 * time.Minute
	ShortBreak        = 5 * time.Minute
	LongBreak         = 15 * time.Minute
	LongBreakInterval = 4
	EndingGracePeriod = 2 * time.Second
	TickInterval      = time.Second

	// Conflict resolution constants
	MinCandidateDuration     = time.Minute
	DefaultCandidateDuration = 60 * time.Minute
	DefaultSuggestionCount   = 3
	DefaultSearchHorizonDays = 5

	// Interpreter constants
	DefaultInterpreterModel = "gemini-2.5-flash"
	InterpreterTimeout      = 30 * time.Second
	APIKeyEnvVar            = "FLOWMIND_API_KEY"
	DBConnectionEnvVar      = "FLOWMIND_DB_CONNECTION"
)

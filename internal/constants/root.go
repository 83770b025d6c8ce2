package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName            = "strive"
	DefaultKeyringUser = "database-connection"
	DefaultDataDir     = "~/.config/strive"
	DefaultConfigFile  = "config.yaml"
	DefaultDBFile      = "strive.db"
	DefaultJSONFile    = "strive.json"
	DefaultBadgerDir   = "badger"
	DefaultWidgetFile  = "widget.json"
	Version            = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "strive-"
	BackupFileSuffix = ".csv"
	BackupTimeFormat = "20060102-1504"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "strive-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.strive"

	// Store backends
	BackendSQLite   = "sqlite"
	BackendJSON     = "json"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Session States
const (
	StateHabits SessionState = iota
	StateMood
)

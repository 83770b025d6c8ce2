package constants

// Store keys, one per persisted collection.
const (
	KeyUserProfile = "pref_user_profile_json"
	KeyHabits      = "pref_habits_json"
	KeyTicks       = "pref_ticks_json"
	KeyMoods       = "pref_moods_json"
	KeySettings    = "pref_settings_json"
)

// ExportFormatVersion is written into every export bundle.
const ExportFormatVersion = 1

// MoodRetentionDays bounds how far back mood entries are kept.
const MoodRetentionDays = 180

// Reserved reminder ids for the non-habit reminder windows.
const (
	ReminderMood      = "mood"
	ReminderHydration = "hydration"
)

// AppSettings defaults.
const (
	DefaultTheme                    = "system"
	DefaultMoodStart                = "09:00"
	DefaultMoodEnd                  = "21:00"
	DefaultMoodIntervalMinutes      = 120
	DefaultHydrationStart           = "08:00"
	DefaultHydrationEnd             = "22:00"
	DefaultHydrationIntervalMinutes = 60
	DefaultHabitColor               = "#2196F3"
	DefaultAvatarEmoji              = "😃"

	ChannelHydration = "hydration"
	ChannelGeneral   = "general"
	ChannelMood      = "mood"
)

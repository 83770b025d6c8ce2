package models

import (
	"encoding/json"
	"maps"

	"github.com/julianstephens/strive/internal/constants"
)

// AppSettings is the singleton application configuration record.
// It always exists; a missing record reads as DefaultSettings().
type AppSettings struct {
	StepSensorEnabled        bool            `json:"stepSensorEnabled"`
	Theme                    string          `json:"theme"`
	NotificationChannels     map[string]bool `json:"notificationChannels"`
	NotificationsAll         bool            `json:"notificationsAll"`
	NotificationsHabits      bool            `json:"notificationsHabits"`
	NotificationsMood        bool            `json:"notificationsMood"`
	NotificationsHydration   bool            `json:"notificationsHydration"`
	MoodStartTime            string          `json:"moodStartTime"`
	MoodEndTime              string          `json:"moodEndTime"`
	MoodIntervalMinutes      int             `json:"moodIntervalMinutes"`
	HydrationStartTime       string          `json:"hydrationStartTime"`
	HydrationEndTime         string          `json:"hydrationEndTime"`
	HydrationIntervalMinutes int             `json:"hydrationIntervalMinutes"`
	WidgetSelectedHabitID    string          `json:"widgetSelectedHabitId"`
	HasCompletedOnboarding   bool            `json:"hasCompletedOnboarding"`
	ExportFormatVersion      int             `json:"exportFormatVersion"`
}

// Themes accepted by the settings command
var Themes = []string{"system", "light", "dark"}

func DefaultSettings() AppSettings {
	return AppSettings{
		Theme: constants.DefaultTheme,
		NotificationChannels: map[string]bool{
			constants.ChannelHydration: false,
			constants.ChannelGeneral:   false,
		},
		MoodStartTime:            constants.DefaultMoodStart,
		MoodEndTime:              constants.DefaultMoodEnd,
		MoodIntervalMinutes:      constants.DefaultMoodIntervalMinutes,
		HydrationStartTime:       constants.DefaultHydrationStart,
		HydrationEndTime:         constants.DefaultHydrationEnd,
		HydrationIntervalMinutes: constants.DefaultHydrationIntervalMinutes,
		ExportFormatVersion:      constants.ExportFormatVersion,
	}
}

func (s *AppSettings) UnmarshalJSON(data []byte) error {
	type settingsAlias AppSettings
	d := DefaultSettings()
	// Decoded channels replace the defaults, they are not merged into them.
	d.NotificationChannels = nil
	a := settingsAlias(d)
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.NotificationChannels == nil {
		a.NotificationChannels = DefaultSettings().NotificationChannels
	}
	*s = AppSettings(a)
	return nil
}

// Clone returns a copy that does not share the channel map.
func (s AppSettings) Clone() AppSettings {
	c := s
	c.NotificationChannels = maps.Clone(s.NotificationChannels)
	return c
}

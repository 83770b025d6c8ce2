package models

import (
	"encoding/json"

	"github.com/julianstephens/strive/internal/constants"
)

// ExportBundle is a versioned snapshot of every collection, used for backup and restore.
type ExportBundle struct {
	Version     int          `json:"version"`
	ExportedAt  int64        `json:"exportedAt"`
	UserProfile *UserProfile `json:"userProfile"`
	Habits      []Habit      `json:"habits"`
	Ticks       []HabitTick  `json:"ticks"`
	Moods       []MoodEntry  `json:"moods"`
	Settings    AppSettings  `json:"settings"`
}

func (b *ExportBundle) UnmarshalJSON(data []byte) error {
	type bundleAlias ExportBundle
	a := bundleAlias{
		Version:  constants.ExportFormatVersion,
		Habits:   []Habit{},
		Ticks:    []HabitTick{},
		Moods:    []MoodEntry{},
		Settings: DefaultSettings(),
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Habits == nil {
		a.Habits = []Habit{}
	}
	if a.Ticks == nil {
		a.Ticks = []HabitTick{}
	}
	if a.Moods == nil {
		a.Moods = []MoodEntry{}
	}
	*b = ExportBundle(a)
	return nil
}

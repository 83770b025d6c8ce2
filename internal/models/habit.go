package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/strive/internal/constants"
)

// HabitUnit tags the base unit a habit is measured in
type HabitUnit string

const (
	UnitCount   HabitUnit = "COUNT"
	UnitML      HabitUnit = "ML"
	UnitLiters  HabitUnit = "LITERS"
	UnitMinutes HabitUnit = "MINUTES"
	UnitSteps   HabitUnit = "STEPS"
)

// Units lists the units a caller may choose from when creating a habit
var Units = []HabitUnit{UnitCount, UnitML, UnitLiters, UnitMinutes, UnitSteps}

// ParseUnit accepts any unit tag case-insensitively, plus "L" as an alias for LITERS.
func ParseUnit(s string) (HabitUnit, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	if u == "L" {
		return UnitLiters, nil
	}
	for _, known := range Units {
		if HabitUnit(u) == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown unit %q (expected one of COUNT, ML, LITERS, MINUTES, STEPS)", s)
}

// Habit is a trackable daily practice. Targets and increments are in base units.
type Habit struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Emoji            string    `json:"emoji"`
	Unit             HabitUnit `json:"unit"`
	TargetPerDay     int       `json:"targetPerDay"`
	DefaultIncrement int       `json:"defaultIncrement"`
	Color            string    `json:"color"`
	IsBuiltIn        bool      `json:"isBuiltIn"`
	IsStarred        bool      `json:"isStarred"`
	ReminderTimes    []string  `json:"reminderTimes"`
	Enabled          bool      `json:"enabled"`
	CreatedAt        int64     `json:"createdAt"`
}

// NewHabit returns a habit carrying the record defaults.
func NewHabit(id, title, emoji string, unit HabitUnit, target, increment int, createdAt int64) Habit {
	return Habit{
		ID:               id,
		Title:            title,
		Emoji:            emoji,
		Unit:             unit,
		TargetPerDay:     target,
		DefaultIncrement: increment,
		Color:            constants.DefaultHabitColor,
		ReminderTimes:    []string{},
		Enabled:          true,
		CreatedAt:        createdAt,
	}
}

func (h *Habit) UnmarshalJSON(data []byte) error {
	type habitAlias Habit
	a := habitAlias{
		Color:         constants.DefaultHabitColor,
		ReminderTimes: []string{},
		Enabled:       true,
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.ReminderTimes == nil {
		a.ReminderTimes = []string{}
	}
	*h = Habit(a)
	return nil
}

// Clone returns a copy that shares no slices with h.
func (h Habit) Clone() Habit {
	c := h
	c.ReminderTimes = append([]string{}, h.ReminderTimes...)
	return c
}

// NormalizeUnit converts LITERS habits to ML, scaling target and increment by 1000.
func NormalizeUnit(h Habit) Habit {
	if h.Unit == UnitLiters || h.Unit == "L" {
		h.Unit = UnitML
		h.TargetPerDay *= 1000
		h.DefaultIncrement *= 1000
	}
	return h
}

// HabitTick is the accumulated progress of one habit on one calendar day.
type HabitTick struct {
	HabitID string `json:"habitId"`
	Date    string `json:"date"`
	Amount  int    `json:"amount"`
}

// Key identifies the (habit, date) pair a tick belongs to.
func (t HabitTick) Key() string {
	return t.HabitID + "|" + t.Date
}

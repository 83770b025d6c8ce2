// Package reminders computes when habit, mood and hydration reminders fire
// and runs them on a cron schedule.
package reminders

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/utils"
)

// ErrInvalidWindow is returned for reminder windows with unparseable times.
var ErrInvalidWindow = errors.New("invalid reminder window")

const minutesPerDay = 24 * 60

// GenerateAlarmTimes lists HH:mm times from start to end inclusive, every
// interval minutes. Intervals below one minute are treated as one. The list
// stops at the end of the day; windows never wrap past midnight, and a window
// whose start is after its end is empty.
func GenerateAlarmTimes(start, end string, intervalMinutes int) ([]string, error) {
	from, err := utils.ParseTimeToMinutes(start)
	if err != nil {
		return nil, fmt.Errorf("%w: start %q", ErrInvalidWindow, start)
	}
	to, err := utils.ParseTimeToMinutes(end)
	if err != nil {
		return nil, fmt.Errorf("%w: end %q", ErrInvalidWindow, end)
	}
	interval := max(intervalMinutes, 1)

	times := []string{}
	for t := from; t <= to && t < minutesPerDay; t += interval {
		times = append(times, utils.MinutesToTime(t))
	}
	return times, nil
}

// NextTrigger returns the next occurrence of the HH:mm time at or after now,
// in now's location: today if it has not passed yet, otherwise tomorrow.
func NextTrigger(now time.Time, hhmm string) (time.Time, error) {
	minutes, err := utils.ParseTimeToMinutes(hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder time %q: %w", hhmm, err)
	}
	trigger := time.Date(now.Year(), now.Month(), now.Day(), minutes/60, minutes%60, 0, 0, now.Location())
	if trigger.Before(now) {
		trigger = trigger.AddDate(0, 0, 1)
	}
	return trigger, nil
}

// javaHash is the 31-multiplier string hash over UTF-16 code units.
func javaHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

// RequestCode identifies a (reminder id, time) pair. Codes match the ones
// the mobile app registered its alarms under.
func RequestCode(id, hhmm string) int32 {
	return javaHash(id) ^ javaHash(hhmm)
}

// IncrementLabel formats a habit's default increment with its unit.
func IncrementLabel(h models.Habit) string {
	switch h.Unit {
	case models.UnitML:
		return fmt.Sprintf("%d mL", h.DefaultIncrement)
	case models.UnitLiters:
		return fmt.Sprintf("%d L", h.DefaultIncrement)
	case models.UnitMinutes:
		return fmt.Sprintf("%d min", h.DefaultIncrement)
	case models.UnitSteps:
		return fmt.Sprintf("%d steps", h.DefaultIncrement)
	default:
		return fmt.Sprintf("%d", h.DefaultIncrement)
	}
}

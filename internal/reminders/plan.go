package reminders

import (
	"fmt"
	"sort"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/utils"
)

type Kind string

const (
	KindHabit     Kind = "habit"
	KindMood      Kind = "mood"
	KindHydration Kind = "hydration"
)

// Reminder is one daily firing.
type Reminder struct {
	// ID is a habit id, or one of the reserved ids for mood and hydration.
	ID   string
	Time string
	Kind Kind
}

// Key is the cron entry key, <id>@<HH:mm>.
func (r Reminder) Key() string {
	return r.ID + "@" + r.Time
}

// IsReservedID reports whether id names a non-habit reminder window.
func IsReservedID(id string) bool {
	return id == constants.ReminderMood || id == constants.ReminderHydration
}

// Plan lists every reminder implied by settings and habits, ordered by time.
// Habit reminders are planned for each enabled habit. Mood and hydration
// windows are planned only when notificationsAll and their own toggle are on.
// Invalid times are logged and skipped.
func Plan(s models.AppSettings, habits []models.Habit) []Reminder {
	var plan []Reminder
	seen := map[string]bool{}
	add := func(r Reminder) {
		if !seen[r.Key()] {
			seen[r.Key()] = true
			plan = append(plan, r)
		}
	}

	for _, h := range habits {
		if !h.Enabled || IsReservedID(h.ID) {
			continue
		}
		for _, t := range h.ReminderTimes {
			if !utils.ValidateTimeFormat(t) {
				logger.Warn("Skipping invalid reminder time", "habit", h.ID, "time", t)
				continue
			}
			add(Reminder{ID: h.ID, Time: normalize(t), Kind: KindHabit})
		}
	}

	windows := []struct {
		enabled    bool
		id         string
		kind       Kind
		start, end string
		interval   int
	}{
		{s.NotificationsMood, constants.ReminderMood, KindMood, s.MoodStartTime, s.MoodEndTime, s.MoodIntervalMinutes},
		{s.NotificationsHydration, constants.ReminderHydration, KindHydration, s.HydrationStartTime, s.HydrationEndTime, s.HydrationIntervalMinutes},
	}
	for _, w := range windows {
		if !s.NotificationsAll || !w.enabled {
			continue
		}
		times, err := GenerateAlarmTimes(w.start, w.end, w.interval)
		if err != nil {
			logger.Warn("Skipping reminder window", "id", w.id, "error", err)
			continue
		}
		for _, t := range times {
			add(Reminder{ID: w.id, Time: t, Kind: w.kind})
		}
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Time < plan[j].Time })
	return plan
}

// normalize rewrites H:mm as HH:mm.
func normalize(hhmm string) string {
	m, err := utils.ParseTimeToMinutes(hhmm)
	if err != nil {
		return hhmm
	}
	return utils.MinutesToTime(m)
}

// cronSpec turns HH:mm into a daily cron expression.
func cronSpec(hhmm string) (string, error) {
	m, err := utils.ParseTimeToMinutes(hhmm)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m%60, m/60), nil
}

package backup

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/repository"
)

// Header is the first row of every backup file.
var Header = []string{"SECTION", "KEY", "VALUE1", "VALUE2", "VALUE3", "VALUE4", "VALUE5"}

// ErrNotBackup is returned when a file does not start with Header.
var ErrNotBackup = errors.New("not a strive backup file")

// Export writes every collection of repo as sectioned CSV.
func Export(w io.Writer, repo *repository.Repository) error {
	cw := csv.NewWriter(w)
	rows, err := exportRows(repo)
	if err != nil {
		return err
	}
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write backup header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write backup row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRows(repo *repository.Repository) ([][]string, error) {
	var rows [][]string
	add := func(fields ...string) { rows = append(rows, fields) }

	profile, err := repo.GetUserProfile()
	if err != nil {
		return nil, err
	}
	if profile != nil {
		add("USER", "NAME", profile.Name)
		add("USER", "AGE", strconv.Itoa(profile.Age))
		add("USER", "GENDER", profile.Gender)
		add("USER", "AVATAR", profile.AvatarEmoji)
	}

	s, err := repo.GetSettings()
	if err != nil {
		return nil, err
	}
	add("SETTINGS", "NOTIF_ALL", strconv.FormatBool(s.NotificationsAll))
	add("SETTINGS", "NOTIF_HABITS", strconv.FormatBool(s.NotificationsHabits))
	add("SETTINGS", "NOTIF_MOOD", strconv.FormatBool(s.NotificationsMood))
	add("SETTINGS", "NOTIF_HYDRATION", strconv.FormatBool(s.NotificationsHydration))
	add("SETTINGS", "THEME", s.Theme)
	add("SETTINGS", "STEP_SENSOR", strconv.FormatBool(s.StepSensorEnabled))
	add("SETTINGS", "MOOD_START", s.MoodStartTime)
	add("SETTINGS", "MOOD_END", s.MoodEndTime)
	add("SETTINGS", "MOOD_INTERVAL", strconv.Itoa(s.MoodIntervalMinutes))
	add("SETTINGS", "HYDRATION_START", s.HydrationStartTime)
	add("SETTINGS", "HYDRATION_END", s.HydrationEndTime)
	add("SETTINGS", "HYDRATION_INTERVAL", strconv.Itoa(s.HydrationIntervalMinutes))
	add("SETTINGS", "WIDGET_HABIT", s.WidgetSelectedHabitID)
	// A restored backup never sends the user back through onboarding.
	add("SETTINGS", "ONBOARDING_COMPLETE", "true")

	for _, key := range slices.Sorted(maps.Keys(s.NotificationChannels)) {
		add("NOTIF_CHANNEL", key, strconv.FormatBool(s.NotificationChannels[key]))
	}

	habits, err := repo.GetAllHabits()
	if err != nil {
		return nil, err
	}
	for _, h := range habits {
		add("HABIT", h.ID, h.Title, h.Emoji, strconv.Itoa(h.TargetPerDay), string(h.Unit), strconv.FormatBool(h.IsBuiltIn))
	}
	// Ticks of deleted habits are not exported.
	for _, h := range habits {
		ticks, err := repo.GetTicksForHabit(h.ID)
		if err != nil {
			return nil, err
		}
		for _, t := range ticks {
			add("TICK", t.HabitID, t.Date, strconv.Itoa(t.Amount))
		}
	}

	moods, err := repo.GetAllMoods()
	if err != nil {
		return nil, err
	}
	for _, m := range moods {
		note := strings.ReplaceAll(m.NoteText(), ",", " ")
		add("MOOD", m.ID, strconv.FormatInt(m.Timestamp, 10), m.Emoji, strconv.Itoa(m.Score), note)
	}
	return rows, nil
}

// parsed collects the rows of one backup file.
type parsed struct {
	name, gender, avatar *string
	age                  *int

	settings models.AppSettings
	channels map[string]bool
	habits   []models.Habit
	ticks    []models.HabitTick
	moods    []models.MoodEntry
}

func field(row []string, i int) (string, bool) {
	if i < len(row) {
		return row[i], true
	}
	return "", false
}

func intField(row []string, i int) (int, bool) {
	v, ok := field(row, i)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return n, err == nil
}

// boolField accepts only the exact words true and false.
func boolField(row []string, i int) (bool, bool) {
	switch v, _ := field(row, i); v {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

func setString(dst *string, row []string) {
	if v, ok := field(row, 2); ok {
		*dst = v
	}
}

func setInt(dst *int, row []string) {
	if v, ok := intField(row, 2); ok {
		*dst = v
	}
}

func setBool(dst *bool, row []string) {
	if v, ok := boolField(row, 2); ok {
		*dst = v
	}
}

// restoreDefaults are the settings assumed for rows a backup does not carry.
func restoreDefaults() models.AppSettings {
	s := models.DefaultSettings()
	s.NotificationsAll = true
	s.NotificationsHabits = true
	s.NotificationsMood = true
	s.NotificationsHydration = false
	s.HasCompletedOnboarding = true
	return s
}

// parse reads a backup. current seeds the habit list that HABIT rows are
// upserted into; now stamps rows without a timestamp.
func parse(r io.Reader, current []models.Habit, now int64) (*parsed, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF || (err == nil && (len(header) < 2 || header[0] != Header[0] || header[1] != Header[1])) {
		return nil, ErrNotBackup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup header: %w", err)
	}

	p := &parsed{
		settings: restoreDefaults(),
		channels: map[string]bool{},
		habits:   current,
		ticks:    []models.HabitTick{},
		moods:    []models.MoodEntry{},
	}
	s := &p.settings

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read backup: %w", err)
		}
		section, _ := field(row, 0)
		key, _ := field(row, 1)

		switch section {
		case "USER":
			v, ok := field(row, 2)
			switch key {
			case "NAME":
				if ok {
					p.name = &v
				}
			case "AGE":
				if n, ok := intField(row, 2); ok {
					p.age = &n
				}
			case "GENDER":
				if ok {
					p.gender = &v
				}
			case "AVATAR":
				if ok {
					p.avatar = &v
				}
			}
		case "SETTINGS":
			switch key {
			case "NOTIF_ALL":
				setBool(&s.NotificationsAll, row)
			case "NOTIF_HABITS":
				setBool(&s.NotificationsHabits, row)
			case "NOTIF_MOOD":
				setBool(&s.NotificationsMood, row)
			case "NOTIF_HYDRATION":
				setBool(&s.NotificationsHydration, row)
			case "THEME":
				setString(&s.Theme, row)
			case "STEP_SENSOR":
				setBool(&s.StepSensorEnabled, row)
			case "MOOD_START":
				setString(&s.MoodStartTime, row)
			case "MOOD_END":
				setString(&s.MoodEndTime, row)
			case "MOOD_INTERVAL":
				setInt(&s.MoodIntervalMinutes, row)
			case "HYDRATION_START":
				setString(&s.HydrationStartTime, row)
			case "HYDRATION_END":
				setString(&s.HydrationEndTime, row)
			case "HYDRATION_INTERVAL":
				setInt(&s.HydrationIntervalMinutes, row)
			case "WIDGET_HABIT":
				setString(&s.WidgetSelectedHabitID, row)
			case "ONBOARDING_COMPLETE":
				setBool(&s.HasCompletedOnboarding, row)
			}
		case "NOTIF_CHANNEL":
			if v, ok := boolField(row, 2); ok && len(row) > 1 {
				p.channels[key] = v
			}
		case "HABIT":
			title, ok := field(row, 2)
			if !ok {
				continue
			}
			emoji, _ := field(row, 3)
			target, _ := intField(row, 4)
			unit, _ := field(row, 5)
			builtIn, _ := boolField(row, 6)

			h := models.NewHabit(key, title, emoji, models.HabitUnit(unit), target, 1, now)
			h.IsBuiltIn = builtIn
			p.upsertHabit(h)
		case "TICK":
			date, ok := field(row, 2)
			if !ok {
				continue
			}
			amount, _ := intField(row, 3)
			p.ticks = append(p.ticks, models.HabitTick{HabitID: key, Date: date, Amount: amount})
		case "MOOD":
			if len(row) < 2 {
				continue
			}
			ts := now
			if v, ok := field(row, 2); ok {
				if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
					ts = n
				}
			}
			emoji, _ := field(row, 3)
			score, _ := intField(row, 4)
			m := models.MoodEntry{ID: key, Emoji: emoji, Timestamp: ts, Score: score}
			if note, ok := field(row, 5); ok && note != "" {
				m.Note = &note
			}
			p.moods = append(p.moods, m)
		}
	}
	return p, nil
}

func (p *parsed) upsertHabit(h models.Habit) {
	for i := range p.habits {
		if p.habits[i].ID == h.ID {
			p.habits[i] = h
			return
		}
	}
	p.habits = append(p.habits, h)
}

func (p *parsed) profile() *models.UserProfile {
	if p.name == nil || p.age == nil || p.gender == nil || p.avatar == nil {
		return nil
	}
	return &models.UserProfile{Name: *p.name, Age: *p.age, Gender: *p.gender, AvatarEmoji: *p.avatar}
}

// Import restores a backup written by Export, replacing habits, ticks and
// moods. The profile is replaced only when the file carries all four USER
// rows. Settings rows override the current settings; notification channels
// are kept unless the file lists some.
func Import(r io.Reader, repo *repository.Repository) error {
	current, err := repo.GetAllHabits()
	if err != nil {
		return err
	}
	p, err := parse(r, current, repo.Now().UnixMilli())
	if err != nil {
		return err
	}

	existing, err := repo.GetSettings()
	if err != nil {
		return err
	}
	settings := p.settings
	settings.ExportFormatVersion = existing.ExportFormatVersion
	settings.NotificationChannels = existing.NotificationChannels
	if len(p.channels) > 0 {
		settings.NotificationChannels = p.channels
	}

	profile := p.profile()
	if profile != nil {
		profile.CreatedAt = repo.Now().UnixMilli()
	}

	bundle := models.ExportBundle{
		Version:     constants.ExportFormatVersion,
		ExportedAt:  repo.Now().UnixMilli(),
		UserProfile: profile,
		Habits:      p.habits,
		Ticks:       p.ticks,
		Moods:       p.moods,
		Settings:    settings,
	}
	return repo.ImportBundle(bundle, false)
}

// Validate reports whether r holds a readable backup without changing anything.
func Validate(r io.Reader) error {
	_, err := parse(r, nil, 0)
	return err
}

package settings

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/reminders"
	"github.com/julianstephens/strive/internal/utils"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Theme                  *string  `help:"Theme: system, light or dark."`
	StepSensor             *bool    `help:"Enable the step sensor."`
	NotificationsAll       *bool    `help:"Master notification switch."`
	NotificationsHabits    *bool    `help:"Habit reminders."`
	NotificationsMood      *bool    `help:"Mood check-in reminders."`
	NotificationsHydration *bool    `help:"Hydration reminders."`
	MoodStart              *string  `help:"Mood window start (HH:MM)."`
	MoodEnd                *string  `help:"Mood window end (HH:MM)."`
	MoodInterval           *int     `help:"Minutes between mood reminders."`
	HydrationStart         *string  `help:"Hydration window start (HH:MM)."`
	HydrationEnd           *string  `help:"Hydration window end (HH:MM)."`
	HydrationInterval      *int     `help:"Minutes between hydration reminders."`
	WidgetHabit            *string  `help:"Habit shown on the widget (id or title, empty to clear)."`
	Channel                []string `help:"Toggle a notification channel, as name=true|false." placeholder:"NAME=BOOL"`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Repo.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		return printSettings(ctx, settings)
	}

	updated, err := c.apply(ctx, &settings)
	if err != nil {
		return err
	}

	if updated {
		if err := ctx.Repo.SaveSettings(settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		ctx.Repo.RefreshWidget()
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}

func (c *SettingsCmd) apply(ctx *cli.Context, s *models.AppSettings) (bool, error) {
	updated := false

	if c.Theme != nil {
		if !slices.Contains(models.Themes, *c.Theme) {
			return false, fmt.Errorf("invalid theme %q (expected system, light or dark)", *c.Theme)
		}
		s.Theme = *c.Theme
		updated = true
	}

	bools := []struct {
		flag *bool
		dst  *bool
	}{
		{c.StepSensor, &s.StepSensorEnabled},
		{c.NotificationsAll, &s.NotificationsAll},
		{c.NotificationsHabits, &s.NotificationsHabits},
		{c.NotificationsMood, &s.NotificationsMood},
		{c.NotificationsHydration, &s.NotificationsHydration},
	}
	for _, b := range bools {
		if b.flag != nil {
			*b.dst = *b.flag
			updated = true
		}
	}

	times := []struct {
		name string
		flag *string
		dst  *string
	}{
		{"mood-start", c.MoodStart, &s.MoodStartTime},
		{"mood-end", c.MoodEnd, &s.MoodEndTime},
		{"hydration-start", c.HydrationStart, &s.HydrationStartTime},
		{"hydration-end", c.HydrationEnd, &s.HydrationEndTime},
	}
	for _, t := range times {
		if t.flag == nil {
			continue
		}
		if !utils.ValidateTimeFormat(*t.flag) {
			return false, fmt.Errorf("invalid --%s %q (expected HH:MM)", t.name, *t.flag)
		}
		*t.dst = *t.flag
		updated = true
	}

	intervals := []struct {
		name string
		flag *int
		dst  *int
	}{
		{"mood-interval", c.MoodInterval, &s.MoodIntervalMinutes},
		{"hydration-interval", c.HydrationInterval, &s.HydrationIntervalMinutes},
	}
	for _, i := range intervals {
		if i.flag == nil {
			continue
		}
		if *i.flag <= 0 {
			return false, fmt.Errorf("--%s must be positive", i.name)
		}
		*i.dst = *i.flag
		updated = true
	}

	if c.WidgetHabit != nil {
		s.WidgetSelectedHabitID = ""
		if *c.WidgetHabit != "" {
			h, err := ctx.FindHabit(*c.WidgetHabit)
			if err != nil {
				return false, err
			}
			s.WidgetSelectedHabitID = h.ID
		}
		updated = true
	}

	for _, ch := range c.Channel {
		name, value, ok := strings.Cut(ch, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return false, fmt.Errorf("invalid --channel %q (expected NAME=BOOL)", ch)
		}
		var on bool
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "on", "1":
			on = true
		case "false", "off", "0":
		default:
			return false, fmt.Errorf("invalid --channel value %q (expected true or false)", value)
		}
		if s.NotificationChannels == nil {
			s.NotificationChannels = map[string]bool{}
		}
		s.NotificationChannels[strings.TrimSpace(name)] = on
		updated = true
	}

	return updated, nil
}

func printSettings(ctx *cli.Context, s models.AppSettings) error {
	fmt.Println("Current Settings:")
	fmt.Printf("  Theme:                 %s\n", s.Theme)
	fmt.Printf("  Step Sensor:           %v\n", s.StepSensorEnabled)
	fmt.Printf("  Onboarding Complete:   %v\n", s.HasCompletedOnboarding)

	widgetHabit := "(none)"
	if s.WidgetSelectedHabitID != "" {
		widgetHabit = s.WidgetSelectedHabitID
		if h, err := ctx.Repo.GetHabit(s.WidgetSelectedHabitID); err == nil && h != nil {
			widgetHabit = h.Emoji + " " + h.Title
		}
	}
	fmt.Printf("  Widget Habit:          %s\n", widgetHabit)

	fmt.Println("\nNotification Settings:")
	fmt.Printf("  All Notifications:     %v\n", s.NotificationsAll)
	fmt.Printf("  Habit Reminders:       %v\n", s.NotificationsHabits)
	fmt.Printf("  Mood Reminders:        %v (%s-%s every %d min)\n", s.NotificationsMood, s.MoodStartTime, s.MoodEndTime, s.MoodIntervalMinutes)
	fmt.Printf("  Hydration Reminders:   %v (%s-%s every %d min)\n", s.NotificationsHydration, s.HydrationStartTime, s.HydrationEndTime, s.HydrationIntervalMinutes)
	for _, name := range slices.Sorted(maps.Keys(s.NotificationChannels)) {
		fmt.Printf("  Channel %-14s %v\n", name+":", s.NotificationChannels[name])
	}

	habits, err := ctx.Repo.GetAllHabits()
	if err != nil {
		return err
	}
	fmt.Printf("\n%d reminders scheduled per day.\n", len(reminders.Plan(s, habits)))
	return nil
}

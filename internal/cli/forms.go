package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/strive/internal/models"
)

type HabitFormModel struct {
	Title     string
	Emoji     string
	Unit      models.HabitUnit
	Target    string
	Increment string
	Reminders string
}

type SignupFormModel struct {
	Name   string
	Age    string
	Gender string
	Avatar string
}

func positiveInt(label string) func(string) error {
	return func(s string) error {
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", label)
		}
		if i <= 0 {
			return fmt.Errorf("%s must be positive", label)
		}
		return nil
	}
}

func notEmpty(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", label)
		}
		return nil
	}
}

// NewHabitForm creates a new form for adding habits
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	units := make([]huh.Option[models.HabitUnit], 0, len(models.Units))
	for _, u := range models.Units {
		units = append(units, huh.NewOption(string(u), u))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Title).
				Validate(notEmpty("habit name")),
			huh.NewInput().
				Title("Emoji").
				Value(&fm.Emoji),
			huh.NewSelect[models.HabitUnit]().
				Title("Unit").
				Options(units...).
				Value(&fm.Unit),
			huh.NewInput().
				Title("Daily target").
				Value(&fm.Target).
				Validate(positiveInt("target")),
			huh.NewInput().
				Title("Default increment").
				Value(&fm.Increment).
				Validate(positiveInt("increment")),
			huh.NewInput().
				Title("Reminder times").
				Description("Comma-separated HH:MM, optional").
				Value(&fm.Reminders).
				Validate(func(s string) error {
					_, err := ParseReminderTimes(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewSignupForm creates the profile form shown on first run.
func NewSignupForm(fm *SignupFormModel) *huh.Form {
	genders := make([]huh.Option[string], 0, len(models.Genders))
	for _, g := range models.Genders {
		genders = append(genders, huh.NewOption(g, g))
	}
	avatars := make([]huh.Option[string], 0, len(models.EmojiPalette))
	for _, e := range models.EmojiPalette {
		avatars = append(avatars, huh.NewOption(e.Emoji+" "+e.Name, e.Emoji))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fm.Name).
				Validate(notEmpty("name")),
			huh.NewInput().
				Title("Age").
				Value(&fm.Age).
				Validate(positiveInt("age")),
			huh.NewSelect[string]().
				Title("Gender").
				Options(genders...).
				Value(&fm.Gender),
			huh.NewSelect[string]().
				Title("Avatar").
				Options(avatars...).
				Value(&fm.Avatar),
		),
	).WithTheme(huh.ThemeDracula())
}

// Confirm asks a yes/no question. assumeYes skips the prompt.
func Confirm(title, description string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeDracula()).Run()
	if err != nil {
		return false, err
	}
	return ok, nil
}

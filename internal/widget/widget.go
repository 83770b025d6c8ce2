// Package widget computes the home-screen summary of today's habit progress
// and keeps a snapshot of it on disk for desktop widgets to read.
package widget

import (
	"fmt"

	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/repository"
)

// Source is the read side of the repository the widget needs.
type Source interface {
	Today() string
	GetAllHabits() ([]models.Habit, error)
	GetTicksForDate(date string) ([]models.HabitTick, error)
	GetSettings() (models.AppSettings, error)
}

// Card is the selected-habit section of the widget.
type Card struct {
	HabitID  string `json:"habitId,omitempty"`
	Emoji    string `json:"emoji"`
	Title    string `json:"title"`
	Progress string `json:"progress"`
	Percent  int    `json:"percent"`
	// Selected is false for the placeholder shown when no habit is chosen.
	Selected bool `json:"selected"`
}

type Summary struct {
	Date           string `json:"date"`
	OverallPercent int    `json:"overallPercent"`
	Completed      int    `json:"completed"`
	Total          int    `json:"total"`
	Cheer          string `json:"cheer"`
	Card           Card   `json:"card"`
}

// Count is the "completed/total" label.
func (s Summary) Count() string {
	return fmt.Sprintf("%d/%d", s.Completed, s.Total)
}

var noSelection = Card{Emoji: "📊", Title: "No habit selected", Progress: "Choose a habit in settings"}

func amountFor(ticks []models.HabitTick, habitID string) int {
	for _, t := range ticks {
		if t.HabitID == habitID {
			return t.Amount
		}
	}
	return 0
}

// completion is done/target capped at 1, or 0 for habits without a target.
func completion(done, target int) float64 {
	if target <= 0 {
		return 0
	}
	return min(float64(done)/float64(target), 1)
}

// Compute summarizes today's ticks against every habit.
func Compute(habits []models.Habit, ticksToday []models.HabitTick, settings models.AppSettings) Summary {
	s := Summary{Total: len(habits), Card: noSelection}

	var total float64
	for _, h := range habits {
		c := completion(amountFor(ticksToday, h.ID), h.TargetPerDay)
		total += c
		if c >= 1 {
			s.Completed++
		}
	}
	if s.Total > 0 {
		s.OverallPercent = int(total / float64(s.Total) * 100)
	}
	s.Cheer = Cheer(s.OverallPercent, s.Completed)

	if id := settings.WidgetSelectedHabitID; id != "" {
		for _, h := range habits {
			if h.ID == id {
				s.Card = cardFor(h, amountFor(ticksToday, h.ID))
				break
			}
		}
	}
	return s
}

func cardFor(h models.Habit, done int) Card {
	percent := 0
	if h.TargetPerDay > 0 {
		percent = min(int(float64(done)/float64(h.TargetPerDay)*100), 100)
	}
	return Card{
		HabitID:  h.ID,
		Emoji:    h.Emoji,
		Title:    h.Title,
		Progress: ProgressText(h, done),
		Percent:  percent,
		Selected: true,
	}
}

// ProgressText formats "done / target" with the habit's unit.
func ProgressText(h models.Habit, done int) string {
	suffix := ""
	switch h.Unit {
	case models.UnitML:
		suffix = " mL"
	case models.UnitLiters:
		suffix = " L"
	case models.UnitMinutes:
		suffix = " min"
	case models.UnitSteps:
		suffix = " steps"
	}
	return fmt.Sprintf("%d / %d%s", done, h.TargetPerDay, suffix)
}

// Cheer picks the encouragement line for an overall percentage.
func Cheer(percent, completed int) string {
	switch {
	case percent == 100:
		return "🎉 Perfect day!"
	case percent >= 80:
		return "🔥 Almost there!"
	case percent >= 60:
		return "💪 Great progress!"
	case percent >= 40:
		return "👍 Keep it up!"
	case percent >= 20:
		return "🌱 Good start!"
	case completed > 0:
		return "✨ You got this!"
	default:
		return "🚀 Ready to begin?"
	}
}

// Load computes the summary for today from src.
func Load(src Source) (Summary, error) {
	habits, err := src.GetAllHabits()
	if err != nil {
		return Summary{}, err
	}
	today := src.Today()
	ticks, err := src.GetTicksForDate(today)
	if err != nil {
		return Summary{}, err
	}
	settings, err := src.GetSettings()
	if err != nil {
		return Summary{}, err
	}
	s := Compute(habits, ticks, settings)
	s.Date = today
	return s, nil
}

// Plus adds the selected habit's default increment to today's tick. It
// reports false when no existing habit is selected.
func Plus(repo *repository.Repository) (bool, error) {
	settings, err := repo.GetSettings()
	if err != nil {
		return false, err
	}
	if settings.WidgetSelectedHabitID == "" {
		return false, nil
	}
	h, err := repo.GetHabit(settings.WidgetSelectedHabitID)
	if err != nil || h == nil {
		return false, err
	}
	return true, repo.AddTick(h.ID, h.DefaultIncrement)
}

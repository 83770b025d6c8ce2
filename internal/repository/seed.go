package repository

import "github.com/julianstephens/strive/internal/models"

// Built-in habit ids.
const (
	HabitWater    = "habit_water"
	HabitMeditate = "habit_meditate"
	HabitSteps    = "habit_steps"
)

// BuiltInHabits returns the habits a fresh store is seeded with.
func BuiltInHabits(createdAt int64) []models.Habit {
	water := models.NewHabit(HabitWater, "Drink Water", "💧", models.UnitML, 2000, 250, createdAt)
	water.Color = "#2196F3"
	water.ReminderTimes = []string{"09:00", "12:00", "15:00", "18:00"}

	meditate := models.NewHabit(HabitMeditate, "Meditate", "🧘", models.UnitMinutes, 10, 5, createdAt)
	meditate.Color = "#FFEB3B"
	meditate.ReminderTimes = []string{"20:00"}

	steps := models.NewHabit(HabitSteps, "Steps", "👣", models.UnitSteps, 6000, 1000, createdAt)
	steps.Color = "#4CAF50"

	seed := []models.Habit{water, meditate, steps}
	for i := range seed {
		seed[i].IsBuiltIn = true
		seed[i].IsStarred = true
	}
	return seed
}

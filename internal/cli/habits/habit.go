package habits

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/reminders"
	"github.com/julianstephens/strive/internal/utils"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit an existing habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	Star   HabitStarCmd   `cmd:"" help:"Star or unstar a habit."`
}

type HabitAddCmd struct {
	Title     string `arg:"" optional:"" help:"Habit title. Omit to fill in a form."`
	Emoji     string `help:"Emoji shown next to the habit." default:"✅"`
	Unit      string `help:"Unit: COUNT, ML, LITERS, MINUTES or STEPS." default:"COUNT"`
	Target    int    `help:"Daily target." default:"1"`
	Increment int    `help:"Default quick-add increment." default:"1"`
	Color     string `help:"Display color (#RRGGBB)."`
	Reminders string `help:"Comma-separated reminder times (HH:MM)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	if strings.TrimSpace(c.Title) == "" {
		if err := c.fillFromForm(); err != nil {
			return err
		}
	}

	unit, err := models.ParseUnit(c.Unit)
	if err != nil {
		return err
	}
	if c.Target <= 0 || c.Increment <= 0 {
		return fmt.Errorf("target and increment must be positive")
	}
	times, err := cli.ParseReminderTimes(c.Reminders)
	if err != nil {
		return err
	}

	habit := models.NewHabit(uuid.New().String(), strings.TrimSpace(c.Title), c.Emoji, unit, c.Target, c.Increment, utils.NowMillis(ctx.Repo.Now()))
	habit.ReminderTimes = times
	if c.Color != "" {
		habit.Color = c.Color
	}

	if err := ctx.Repo.AddHabit(habit); err != nil {
		return err
	}
	ctx.Repo.RefreshWidget()

	fmt.Printf("Added habit: %s %s (%s)\n", habit.Emoji, habit.Title, habit.ID)
	return nil
}

func (c *HabitAddCmd) fillFromForm() error {
	fm := &cli.HabitFormModel{
		Emoji:     c.Emoji,
		Unit:      models.UnitCount,
		Target:    strconv.Itoa(c.Target),
		Increment: strconv.Itoa(c.Increment),
		Reminders: c.Reminders,
	}
	if err := cli.NewHabitForm(fm).Run(); err != nil {
		return err
	}
	c.Title = fm.Title
	c.Emoji = fm.Emoji
	c.Unit = string(fm.Unit)
	c.Target, _ = strconv.Atoi(strings.TrimSpace(fm.Target))
	c.Increment, _ = strconv.Atoi(strings.TrimSpace(fm.Increment))
	c.Reminders = fm.Reminders
	return nil
}

type HabitListCmd struct {
	Starred bool `help:"Only starred habits."`
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	habits, err := ctx.Repo.GetAllHabits()
	if err != nil {
		return err
	}
	ticks, err := ctx.Repo.GetTicksForDate(ctx.Repo.Today())
	if err != nil {
		return err
	}
	done := make(map[string]int, len(ticks))
	for _, t := range ticks {
		done[t.HabitID] += t.Amount
	}

	shown := 0
	for _, h := range habits {
		if c.Starred && !h.IsStarred {
			continue
		}
		shown++
		flags := ""
		if h.IsStarred {
			flags += " ★"
		}
		if !h.Enabled {
			flags += " [DISABLED]"
		}
		fmt.Printf("%s %-20s %6d/%-6d %-8s +%-10s %s%s\n",
			h.Emoji, h.Title, done[h.ID], h.TargetPerDay, h.Unit, reminders.IncrementLabel(h), h.ID, flags)
		if len(h.ReminderTimes) > 0 {
			fmt.Printf("    reminders: %s\n", strings.Join(h.ReminderTimes, ", "))
		}
	}

	if shown == 0 {
		fmt.Println("No habits found.")
	}
	return nil
}

type HabitEditCmd struct {
	Habit     string  `arg:"" help:"Habit id or title."`
	Title     *string `help:"New title."`
	Emoji     *string `help:"New emoji."`
	Unit      *string `help:"New unit."`
	Target    *int    `help:"New daily target."`
	Increment *int    `help:"New default increment."`
	Color     *string `help:"New color."`
	Reminders *string `help:"Replace reminder times (comma-separated HH:MM, empty to clear)."`
	Enabled   *bool   `help:"Enable or disable the habit."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	updated := false
	if c.Title != nil {
		if strings.TrimSpace(*c.Title) == "" {
			return fmt.Errorf("habit title cannot be empty")
		}
		habit.Title = strings.TrimSpace(*c.Title)
		updated = true
	}
	if c.Emoji != nil {
		habit.Emoji = *c.Emoji
		updated = true
	}
	if c.Unit != nil {
		unit, err := models.ParseUnit(*c.Unit)
		if err != nil {
			return err
		}
		habit.Unit = unit
		updated = true
	}
	if c.Target != nil {
		if *c.Target <= 0 {
			return fmt.Errorf("target must be positive")
		}
		habit.TargetPerDay = *c.Target
		updated = true
	}
	if c.Increment != nil {
		if *c.Increment <= 0 {
			return fmt.Errorf("increment must be positive")
		}
		habit.DefaultIncrement = *c.Increment
		updated = true
	}
	if c.Color != nil {
		habit.Color = *c.Color
		updated = true
	}
	if c.Reminders != nil {
		times, err := cli.ParseReminderTimes(*c.Reminders)
		if err != nil {
			return err
		}
		habit.ReminderTimes = times
		updated = true
	}
	if c.Enabled != nil {
		habit.Enabled = *c.Enabled
		updated = true
	}

	if !updated {
		fmt.Println("No changes specified.")
		return nil
	}
	if err := ctx.Repo.UpdateHabit(habit); err != nil {
		return err
	}
	ctx.Repo.RefreshWidget()
	fmt.Printf("Updated habit: %s\n", habit.Title)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit id or title."`
	Yes   bool   `short:"y" help:"Skip confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}

	ok, err := cli.Confirm(fmt.Sprintf("Delete %s %s?", habit.Emoji, habit.Title), "All recorded progress for this habit is removed.", c.Yes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Delete cancelled.")
		return nil
	}

	if err := ctx.Repo.DeleteHabit(habit.ID); err != nil {
		return err
	}
	ctx.Repo.RefreshWidget()
	fmt.Printf("Deleted habit: %s\n", habit.Title)
	return nil
}

type HabitStarCmd struct {
	Habit string `arg:"" help:"Habit id or title."`
	Off   bool   `help:"Remove the star instead."`
}

func (c *HabitStarCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	habit.IsStarred = !c.Off
	if err := ctx.Repo.UpdateHabit(habit); err != nil {
		return err
	}
	if c.Off {
		fmt.Printf("Unstarred habit: %s\n", habit.Title)
	} else {
		fmt.Printf("Starred habit: %s\n", habit.Title)
	}
	return nil
}

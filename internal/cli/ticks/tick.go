package ticks

import (
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/widget"
)

type TickCmd struct {
	Add  TickAddCmd  `cmd:"" help:"Add to today's progress for a habit."`
	Set  TickSetCmd  `cmd:"" help:"Overwrite progress for a habit on a day."`
	List TickListCmd `cmd:"" help:"Show recorded progress."`
}

type TickAddCmd struct {
	Habit  string `arg:"" help:"Habit id or title."`
	Amount int    `arg:"" optional:"" help:"Amount to add (default: the habit's default increment)."`
}

func (c *TickAddCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	amount := c.Amount
	if amount == 0 {
		amount = habit.DefaultIncrement
	}

	if err := ctx.Repo.AddTick(habit.ID, amount); err != nil {
		return err
	}
	return printProgress(ctx, habit, ctx.Repo.Today())
}

type TickSetCmd struct {
	Habit  string `arg:"" help:"Habit id or title."`
	Amount int    `arg:"" help:"Amount for the day."`
	Date   string `help:"Date in YYYY-MM-DD format, 'today' or 'yesterday'." default:"today"`
}

func (c *TickSetCmd) Run(ctx *cli.Context) error {
	habit, err := ctx.FindHabit(c.Habit)
	if err != nil {
		return err
	}
	date, err := ctx.ResolveDate(c.Date)
	if err != nil {
		return err
	}

	if err := ctx.Repo.SetTick(habit.ID, date, c.Amount); err != nil {
		return err
	}
	return printProgress(ctx, habit, date)
}

func printProgress(ctx *cli.Context, habit models.Habit, date string) error {
	ticks, err := ctx.Repo.GetTicksForDate(date)
	if err != nil {
		return err
	}
	done := 0
	for _, t := range ticks {
		if t.HabitID == habit.ID {
			done += t.Amount
		}
	}
	fmt.Printf("%s %s on %s: %s\n", habit.Emoji, habit.Title, date, widget.ProgressText(habit, done))
	return nil
}

type TickListCmd struct {
	Habit string `help:"Only this habit (id or title)."`
	Date  string `help:"Only this date (YYYY-MM-DD, 'today' or 'yesterday')."`
}

func (c *TickListCmd) Run(ctx *cli.Context) error {
	var (
		ticks []models.HabitTick
		err   error
	)
	switch {
	case c.Habit != "":
		habit, ferr := ctx.FindHabit(c.Habit)
		if ferr != nil {
			return ferr
		}
		ticks, err = ctx.Repo.GetTicksForHabit(habit.ID)
	case c.Date != "":
		date, derr := ctx.ResolveDate(c.Date)
		if derr != nil {
			return derr
		}
		ticks, err = ctx.Repo.GetTicksForDate(date)
	default:
		ticks, err = ctx.Repo.GetAllTicks()
	}
	if err != nil {
		return err
	}

	if c.Habit != "" && c.Date != "" {
		date, derr := ctx.ResolveDate(c.Date)
		if derr != nil {
			return derr
		}
		ticks = slices.DeleteFunc(ticks, func(t models.HabitTick) bool { return t.Date != date })
	}

	if len(ticks) == 0 {
		fmt.Println("No progress recorded.")
		return nil
	}

	habits, err := ctx.Repo.GetAllHabits()
	if err != nil {
		return err
	}
	byID := make(map[string]models.Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}

	slices.SortStableFunc(ticks, func(a, b models.HabitTick) int {
		if a.Date != b.Date {
			return strings.Compare(b.Date, a.Date)
		}
		return strings.Compare(a.HabitID, b.HabitID)
	})
	for _, t := range ticks {
		h, ok := byID[t.HabitID]
		if !ok {
			fmt.Printf("%s  %-24s %d\n", t.Date, t.HabitID, t.Amount)
			continue
		}
		fmt.Printf("%s  %s %-20s %s\n", t.Date, h.Emoji, h.Title, widget.ProgressText(h, t.Amount))
	}
	return nil
}

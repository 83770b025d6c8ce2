package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/notifier"
	"github.com/julianstephens/strive/internal/reminders"
)

type RemindersCmd struct {
	List RemindersListCmd `cmd:"" help:"List today's reminder schedule." default:"1"`
	Run  RemindersRunCmd  `cmd:"" help:"Run the reminder daemon in the foreground."`
	Fire RemindersFireCmd `cmd:"" help:"Send the reminders due this minute (for use from cron)."`
}

// logSender prints notifications instead of delivering them.
type logSender struct{}

func (logSender) Notify(_ context.Context, n notifier.Notification) error {
	fmt.Printf("[%s] %s: %s\n", n.Channel, n.Title, n.Text)
	logger.Info("Reminder", "title", n.Title, "channel", n.Channel)
	return nil
}

func sender(ctx *cli.Context, dryRun bool) reminders.Sender {
	if dryRun || !ctx.Config.Notifier.Enabled {
		return logSender{}
	}
	return notifier.New()
}

func plan(ctx *cli.Context) ([]reminders.Reminder, error) {
	settings, err := ctx.Repo.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	habits, err := ctx.Repo.GetAllHabits()
	if err != nil {
		return nil, err
	}
	return reminders.Plan(settings, habits), nil
}

type RemindersListCmd struct{}

func (c *RemindersListCmd) Run(ctx *cli.Context) error {
	entries, err := plan(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No reminders scheduled.")
		return nil
	}

	now := ctx.Repo.Now()
	for _, r := range entries {
		label := string(r.Kind)
		if r.Kind == reminders.KindHabit {
			if h, err := ctx.Repo.GetHabit(r.ID); err == nil && h != nil {
				label = h.Emoji + " " + h.Title
			}
		}
		next, err := reminders.NextTrigger(now, r.Time)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %-24s next %s  (#%d)\n", r.Time, label, next.Format("Mon 15:04"), reminders.RequestCode(r.ID, r.Time))
	}
	return nil
}

type RemindersRunCmd struct {
	DryRun   bool  `help:"Print notifications instead of sending them."`
	QuickAdd *bool `help:"Record the default increment when a habit reminder fires (default: notifier.quick_add)."`
}

func (c *RemindersRunCmd) Run(ctx *cli.Context) error {
	quickAdd := ctx.Config.Notifier.QuickAdd
	if c.QuickAdd != nil {
		quickAdd = *c.QuickAdd
	}

	daemon := reminders.NewDaemon(ctx.Repo, sender(ctx, c.DryRun),
		reminders.WithQuickAdd(quickAdd),
		reminders.WithMidnightRefresh(ctx.Widget),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("%s reminders running. Press Ctrl+C to stop.\n", constants.AppName)
	return daemon.Run(runCtx)
}

type RemindersFireCmd struct {
	DryRun bool `help:"Print notifications to stdout instead of sending them."`
}

func (c *RemindersFireCmd) Run(ctx *cli.Context) error {
	entries, err := plan(ctx)
	if err != nil {
		return err
	}

	current := ctx.Repo.Now().Format(constants.TimeFormat)
	daemon := reminders.NewDaemon(ctx.Repo, sender(ctx, c.DryRun), reminders.WithQuickAdd(ctx.Config.Notifier.QuickAdd))

	fired := 0
	for _, r := range entries {
		if r.Time != current {
			continue
		}
		if err := daemon.Fire(context.Background(), r); err != nil {
			logger.Warn("Failed to send reminder", "reminder", r.Key(), "error", err)
			continue
		}
		fired++
	}
	if c.DryRun && fired == 0 {
		fmt.Printf("No reminders due at %s.\n", current)
	}
	return nil
}

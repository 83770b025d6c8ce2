package reminders

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/events"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/notifier"
	"github.com/julianstephens/strive/internal/repository"
)

// Sender delivers one notification.
type Sender interface {
	Notify(ctx context.Context, n notifier.Notification) error
}

// cronLogger routes cron's own logging through the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

type DaemonOption func(*Daemon)

// WithQuickAdd makes each habit reminder also record the habit's default increment.
func WithQuickAdd(enabled bool) DaemonOption {
	return func(d *Daemon) { d.quickAdd = enabled }
}

// WithMidnightRefresh refreshes widgets and reloads the schedule at midnight.
func WithMidnightRefresh(refresher events.Refresher) DaemonOption {
	return func(d *Daemon) { d.refresher = refresher }
}

// Daemon fires reminders on a cron schedule in the repository's timezone.
type Daemon struct {
	repo      *repository.Repository
	sender    Sender
	cron      *cron.Cron
	quickAdd  bool
	refresher events.Refresher

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

func NewDaemon(repo *repository.Repository, sender Sender, opts ...DaemonOption) *Daemon {
	d := &Daemon{
		repo:    repo,
		sender:  sender,
		ctx:     context.Background(),
		entries: map[string]cron.EntryID{},
	}
	for _, opt := range opts {
		opt(d)
	}
	d.cron = cron.New(
		cron.WithLocation(repo.Location()),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{})),
	)
	return d
}

// Reload plans reminders from the repository's current settings and habits
// and replaces the schedule with them.
func (d *Daemon) Reload() error {
	settings, err := d.repo.GetSettings()
	if err != nil {
		return err
	}
	habits, err := d.repo.GetAllHabits()
	if err != nil {
		return err
	}
	return d.Schedule(Plan(settings, habits))
}

// Schedule replaces every reminder entry with plan.
func (d *Daemon) Schedule(plan []Reminder) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key, id := range d.entries {
		d.cron.Remove(id)
		delete(d.entries, key)
	}

	for _, r := range plan {
		spec, err := cronSpec(r.Time)
		if err != nil {
			return fmt.Errorf("reminder %s: %w", r.Key(), err)
		}
		id, err := d.cron.AddFunc(spec, func() {
			if err := d.Fire(d.context(), r); err != nil {
				logger.Warn("Reminder delivery failed", "reminder", r.Key(), "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("reminder %s: %w", r.Key(), err)
		}
		d.entries[r.Key()] = id
	}
	logger.Info("Reminders scheduled", "count", len(plan))
	return nil
}

func (d *Daemon) context() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ctx
}

// CancelHabit removes every scheduled reminder for habitID.
func (d *Daemon) CancelHabit(habitID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prefix := habitID + "@"
	for key, id := range d.entries {
		if strings.HasPrefix(key, prefix) {
			d.cron.Remove(id)
			delete(d.entries, key)
		}
	}
}

// Keys returns the scheduled entry keys, sorted.
func (d *Daemon) Keys() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Sorted(maps.Keys(d.entries))
}

// Notification builds the message shown for r. ok is false when r names a
// habit that no longer exists.
func (d *Daemon) Notification(r Reminder) (notifier.Notification, bool, error) {
	switch r.Kind {
	case KindMood:
		return notifier.Notification{
			Title:   "Mood Reminder",
			Text:    "Enter how you're feeling with an emoji 😊",
			Channel: constants.ChannelMood,
		}, true, nil
	case KindHydration:
		return notifier.Notification{
			Title:   "Hydration Reminder",
			Text:    "Time to drink water! Stay hydrated 💧",
			Channel: constants.ChannelHydration,
		}, true, nil
	}

	h, err := d.repo.GetHabit(r.ID)
	if err != nil || h == nil {
		return notifier.Notification{}, false, err
	}
	text := "Reminder"
	if r.Time != "" {
		text = "Reminder: " + r.Time
	}
	return notifier.Notification{
		Title:   h.Title,
		Text:    text,
		Channel: constants.ChannelGeneral,
		Action:  "Mark +" + IncrementLabel(*h),
	}, true, nil
}

// Fire delivers r now.
func (d *Daemon) Fire(ctx context.Context, r Reminder) error {
	n, ok, err := d.Notification(r)
	if err != nil {
		return err
	}
	if !ok {
		logger.Debug("Skipping reminder for deleted habit", "reminder", r.Key())
		return nil
	}

	if err := d.sender.Notify(ctx, n); err != nil {
		return err
	}
	if d.quickAdd && r.Kind == KindHabit {
		return d.QuickAdd(r.ID)
	}
	return nil
}

// QuickAdd records the habit's default increment for today. Unknown habits are ignored.
func (d *Daemon) QuickAdd(habitID string) error {
	h, err := d.repo.GetHabit(habitID)
	if err != nil || h == nil {
		return err
	}
	return d.repo.AddTick(habitID, h.DefaultIncrement)
}

func (d *Daemon) midnight() {
	if d.refresher != nil {
		if err := d.refresher.RefreshAll(); err != nil {
			logger.Warn("Midnight widget refresh failed", "error", err)
		}
	}
	if err := d.Reload(); err != nil {
		logger.Warn("Failed to reload reminders", "error", err)
	}
}

// Run schedules the current plan and fires reminders until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.ctx = ctx
	d.mu.Unlock()

	if err := d.Reload(); err != nil {
		return err
	}
	if _, err := d.cron.AddFunc("0 0 * * *", d.midnight); err != nil {
		return err
	}

	d.cron.Start()
	logger.Info("Reminder daemon started", "entries", len(d.Keys()))

	<-ctx.Done()
	stopped := d.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(10 * time.Second):
		logger.Warn("Timed out waiting for running reminders")
	}
	return nil
}

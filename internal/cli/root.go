package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/strive/internal/backup"
	"github.com/julianstephens/strive/internal/config"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/repository"
	"github.com/julianstephens/strive/internal/storage"
	"github.com/julianstephens/strive/internal/utils"
	"github.com/julianstephens/strive/internal/widget"
)

// ErrHabitNotFound is returned when a habit reference matches nothing.
var ErrHabitNotFound = errors.New("habit not found")

type Context struct {
	Config *config.Config
	Store  storage.Store
	Repo   *repository.Repository
	// Widget rewrites the widget snapshot whenever ticks change.
	Widget *widget.FileRefresher
}

// NewContext wraps store in a repository that uses the configured timezone
// and keeps the widget snapshot current.
func NewContext(cfg *config.Config, store storage.Store, opts ...repository.Option) (*Context, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opts = append([]repository.Option{repository.WithLocation(loc)}, opts...)
	repo := repository.New(store, opts...)

	refresher := widget.NewFileRefresher(repo, cfg.Widget.SnapshotPath)
	repo.SetWidgetRefresher(refresher)

	return &Context{
		Config: cfg,
		Store:  store,
		Repo:   repo,
		Widget: refresher,
	}, nil
}

// BackupManager returns a manager for <dataDir>/backups honoring backup.max_backups.
func (c *Context) BackupManager() *backup.Manager {
	mgr := backup.NewManager(c.Config.DataDir, c.Repo)
	if c.Config.Backup.MaxBackups > 0 {
		mgr.MaxBackups = c.Config.Backup.MaxBackups
	}
	return mgr
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, err := c.BackupManager().CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// FindHabit resolves ref as a habit id, then as a case-insensitive title.
func (c *Context) FindHabit(ref string) (models.Habit, error) {
	habits, err := c.Repo.GetAllHabits()
	if err != nil {
		return models.Habit{}, err
	}
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
	}

	var matches []models.Habit
	for _, h := range habits {
		if strings.EqualFold(h.Title, strings.TrimSpace(ref)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return models.Habit{}, fmt.Errorf("%w: %q", ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return models.Habit{}, fmt.Errorf("%q matches %d habits, use the habit id", ref, len(matches))
	}
}

// ResolveDate turns "", "today" or "yesterday" into a date in the repository's
// timezone and validates anything else as YYYY-MM-DD.
func (c *Context) ResolveDate(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return c.Repo.Today(), nil
	case "yesterday":
		return utils.DateString(c.Repo.Now().AddDate(0, 0, -1), c.Repo.Location()), nil
	}
	if !utils.ValidateDate(s) {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return s, nil
}

// ParseReminderTimes splits a comma-separated HH:mm list.
func ParseReminderTimes(s string) ([]string, error) {
	times := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse(constants.TimeFormat, part)
		if err != nil {
			return nil, fmt.Errorf("invalid reminder time %q (expected HH:MM)", part)
		}
		times = append(times, t.Format(constants.TimeFormat))
	}
	return times, nil
}

// FormatTimestamp renders epoch millis in the repository's timezone.
func (c *Context) FormatTimestamp(millis int64) string {
	return time.UnixMilli(millis).In(c.Repo.Location()).Format("2006-01-02 15:04")
}

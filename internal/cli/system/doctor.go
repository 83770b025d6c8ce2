package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/codec"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/keyring"
	"github.com/julianstephens/strive/internal/models"
	"github.com/julianstephens/strive/internal/reminders"
	"github.com/julianstephens/strive/internal/storage/sqlite"
	"github.com/julianstephens/strive/internal/utils"
)

// errSkipped marks a check that does not apply to the configured backend.
var errSkipped = errors.New("not applicable")

type DoctorCmd struct{}

// snapshot holds the decoded collections shared by the data checks.
type snapshot struct {
	habits   []models.Habit
	ticks    []models.HabitTick
	settings models.AppSettings
}

type check struct {
	name string
	// warn reports a failure as a warning instead of an error.
	warn bool
	// needsStore skips the check when the store is unreachable.
	needsStore bool
	run        func(ctx *cli.Context, snap *snapshot) error
}

var checks = []check{
	{name: "Storage integrity", needsStore: true, run: checkIntegrity},
	{name: "Schema version", needsStore: true, run: checkSchemaVersion},
	{name: "Stored data decodes", needsStore: true, run: checkDecode},
	{name: "Tick references", needsStore: true, run: checkOrphanTicks},
	{name: "Tick uniqueness", needsStore: true, run: checkDuplicateTicks},
	{name: "Date formats", needsStore: true, run: checkTickDates},
	{name: "Reminder windows", needsStore: true, run: checkReminderWindows},
	{name: "Backups present", warn: true, run: checkBackupsPresent},
	{name: "Keyring", warn: true, run: checkKeyring},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	storeReachable := false

	if err := checkStoreReachable(ctx); err != nil {
		fmt.Printf("❌ Store reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Store reachable: OK\n")
		storeReachable = true
	}

	snap := &snapshot{settings: models.DefaultSettings()}
	for _, c := range checks {
		if c.needsStore && !storeReachable {
			fmt.Printf("⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx, snap)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case errors.Is(err, errSkipped):
			fmt.Printf("⊘ %s: SKIPPED (%v)\n", c.name, err)
		case c.warn:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkStoreReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load store: %w", err)
	}
	if _, err := ctx.Store.Keys(); err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	return nil
}

func checkIntegrity(ctx *cli.Context, _ *snapshot) error {
	sqliteStore, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return fmt.Errorf("%w: %s backend", errSkipped, ctx.Config.Store.Backend)
	}
	result, err := sqliteStore.IntegrityCheck()
	if err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check reported: %s", result)
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context, _ *snapshot) error {
	sqliteStore, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return fmt.Errorf("%w: %s backend", errSkipped, ctx.Config.Store.Backend)
	}
	version, err := sqliteStore.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}
	if version < 1 {
		return fmt.Errorf("no migrations applied, run '%s init'", constants.AppName)
	}
	return nil
}

// decodeKey decodes the raw blob at key into dst when present.
func decodeKey[T any](ctx *cli.Context, key string, dst *T) error {
	raw, ok, err := ctx.Store.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return nil
	}
	v, err := codec.Decode[T](raw)
	if err != nil {
		return fmt.Errorf("%s does not decode: %w", key, err)
	}
	*dst = v
	return nil
}

// checkDecode reads the raw blobs so a fresh store is not seeded by the check.
func checkDecode(ctx *cli.Context, snap *snapshot) error {
	var (
		profile *models.UserProfile
		moods   []models.MoodEntry
	)
	errs := []error{
		decodeKey(ctx, constants.KeyUserProfile, &profile),
		decodeKey(ctx, constants.KeyHabits, &snap.habits),
		decodeKey(ctx, constants.KeyTicks, &snap.ticks),
		decodeKey(ctx, constants.KeyMoods, &moods),
		decodeKey(ctx, constants.KeySettings, &snap.settings),
	}
	return errors.Join(errs...)
}

func checkOrphanTicks(_ *cli.Context, snap *snapshot) error {
	known := make(map[string]bool, len(snap.habits))
	for _, h := range snap.habits {
		known[h.ID] = true
	}
	orphaned := 0
	for _, t := range snap.ticks {
		if !known[t.HabitID] {
			orphaned++
		}
	}
	if orphaned > 0 {
		return fmt.Errorf("found %d ticks referencing habits that no longer exist", orphaned)
	}
	return nil
}

func checkDuplicateTicks(_ *cli.Context, snap *snapshot) error {
	seen := make(map[string]bool, len(snap.ticks))
	for _, t := range snap.ticks {
		if seen[t.Key()] {
			return fmt.Errorf("duplicate tick for habit %s on %s", t.HabitID, t.Date)
		}
		seen[t.Key()] = true
	}
	return nil
}

func checkTickDates(_ *cli.Context, snap *snapshot) error {
	for _, t := range snap.ticks {
		if !utils.ValidateDate(t.Date) {
			return fmt.Errorf("tick for habit %s has invalid date %q", t.HabitID, t.Date)
		}
	}
	return nil
}

func checkReminderWindows(_ *cli.Context, snap *snapshot) error {
	s := snap.settings
	if _, err := reminders.GenerateAlarmTimes(s.MoodStartTime, s.MoodEndTime, s.MoodIntervalMinutes); err != nil {
		return fmt.Errorf("mood window: %w", err)
	}
	if _, err := reminders.GenerateAlarmTimes(s.HydrationStartTime, s.HydrationEndTime, s.HydrationIntervalMinutes); err != nil {
		return fmt.Errorf("hydration window: %w", err)
	}
	for _, h := range snap.habits {
		for _, t := range h.ReminderTimes {
			if _, err := utils.ParseTimeToMinutes(t); err != nil {
				return fmt.Errorf("habit %q has invalid reminder time %q", h.Title, t)
			}
		}
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context, _ *snapshot) error {
	backups, err := ctx.BackupManager().ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with '%s backup create'", constants.AppName)
	}
	return nil
}

func checkKeyring(ctx *cli.Context, _ *snapshot) error {
	if ctx.Config.Store.Backend != constants.BackendPostgres {
		return fmt.Errorf("%w: %s backend", errSkipped, ctx.Config.Store.Backend)
	}
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context, _ *snapshot) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if _, err := ctx.Config.Location(); err != nil {
		return err
	}
	return nil
}

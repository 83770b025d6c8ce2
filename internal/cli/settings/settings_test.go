package settings

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/config"
	"github.com/julianstephens/strive/internal/repository"
	"github.com/julianstephens/strive/internal/storage/sqlite"
	"github.com/julianstephens/strive/internal/widget"
)

func setupTestContext(t *testing.T) (*cli.Context, func()) {
	t.Helper()
	tempDir := t.TempDir()

	store := sqlite.NewStore(filepath.Join(tempDir, "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	cfg := config.Default()
	cfg.DataDir = tempDir
	cfg.Timezone = "UTC"
	cfg.Widget.SnapshotPath = filepath.Join(tempDir, "widget.json")

	ctx, err := cli.NewContext(&cfg, store)
	if err != nil {
		t.Fatalf("failed to create context: %v", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	}
	return ctx, cleanup
}

func TestSettingsCmd_List(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	cmd := &SettingsCmd{
		List: true,
	}

	err := cmd.Run(ctx)
	if err != nil {
		t.Errorf("settings list failed: %v", err)
	}
}

func TestSettingsCmd_NoChanges(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Errorf("settings with no flags failed: %v", err)
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	theme := "dark"
	off := false
	start := "07:00"
	interval := 45
	widgetHabit := "Steps"
	cmd := &SettingsCmd{
		Theme:                  &theme,
		NotificationsHydration: &off,
		HydrationStart:         &start,
		HydrationInterval:      &interval,
		WidgetHabit:            &widgetHabit,
		Channel:                []string{"mood=off", "general=true"},
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	s, err := ctx.Repo.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if s.Theme != "dark" {
		t.Errorf("Theme = %s, want dark", s.Theme)
	}
	if s.NotificationsHydration {
		t.Error("expected hydration notifications to be off")
	}
	if s.HydrationStartTime != "07:00" || s.HydrationIntervalMinutes != 45 {
		t.Errorf("hydration window = %s every %d", s.HydrationStartTime, s.HydrationIntervalMinutes)
	}
	if s.WidgetSelectedHabitID != repository.HabitSteps {
		t.Errorf("WidgetSelectedHabitID = %q, want %q", s.WidgetSelectedHabitID, repository.HabitSteps)
	}
	if s.NotificationChannels["mood"] || !s.NotificationChannels["general"] {
		t.Errorf("unexpected channels: %v", s.NotificationChannels)
	}

	empty := ""
	if err := (&SettingsCmd{WidgetHabit: &empty}).Run(ctx); err != nil {
		t.Fatalf("clearing widget habit failed: %v", err)
	}
	s, _ = ctx.Repo.GetSettings()
	if s.WidgetSelectedHabitID != "" {
		t.Errorf("expected widget habit to be cleared, got %q", s.WidgetSelectedHabitID)
	}
}

func TestSettingsCmd_Invalid(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	badTheme := "neon"
	badTime := "7am"
	zero := 0
	unknown := "juggling"

	tests := []struct {
		name string
		cmd  SettingsCmd
	}{
		{"theme", SettingsCmd{Theme: &badTheme}},
		{"time", SettingsCmd{MoodStart: &badTime}},
		{"interval", SettingsCmd{MoodInterval: &zero}},
		{"widget habit", SettingsCmd{WidgetHabit: &unknown}},
		{"channel syntax", SettingsCmd{Channel: []string{"mood"}}},
		{"channel value", SettingsCmd{Channel: []string{"mood=maybe"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, _ := ctx.Repo.GetSettings()
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected an error")
			}
			after, _ := ctx.Repo.GetSettings()
			if before.Theme != after.Theme || before.MoodStartTime != after.MoodStartTime {
				t.Error("settings changed despite the error")
			}
		})
	}
}

func TestSettingsCmd_WidgetHabitRefreshesSnapshot(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	if err := ctx.Repo.AddTick(repository.HabitWater, 250); err != nil {
		t.Fatalf("AddTick failed: %v", err)
	}
	snap, err := widget.ReadSnapshot(ctx.Widget.Path())
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if snap.Card.Selected {
		t.Fatal("expected the placeholder card before a habit is chosen")
	}

	water := repository.HabitWater
	if err := (&SettingsCmd{WidgetHabit: &water}).Run(ctx); err != nil {
		t.Fatalf("settings failed: %v", err)
	}

	snap, err = widget.ReadSnapshot(ctx.Widget.Path())
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if !snap.Card.Selected || snap.Card.HabitID != repository.HabitWater {
		t.Errorf("card = %+v, want the water habit selected", snap.Card)
	}
}

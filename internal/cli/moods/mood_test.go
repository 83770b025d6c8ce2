package moods

import (
	"path/filepath"
	"testing"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/config"
	"github.com/julianstephens/strive/internal/storage/sqlite"
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

func TestResolveEmoji(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Good", "😁"},
		{"very happy", "😃"},
		{"😢", "😢"},
		{" 🦄 ", "🦄"},
	}
	for _, tt := range tests {
		if got := resolveEmoji(tt.in); got != tt.want {
			t.Errorf("resolveEmoji(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMoodAddCmd(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	cmd := &MoodAddCmd{Emoji: "Good", Note: "  long walk ", At: "2026-10-18 21:15"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("mood add failed: %v", err)
	}

	entries, err := ctx.Repo.GetAllMoods()
	if err != nil {
		t.Fatalf("GetAllMoods failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Emoji != "😁" || e.Score != 5 {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.NoteText() != "long walk" {
		t.Errorf("note = %q, want %q", e.NoteText(), "long walk")
	}
	if got := ctx.FormatTimestamp(e.Timestamp); got != "2026-10-18 21:15" {
		t.Errorf("timestamp = %s", got)
	}
}

func TestMoodAddCmd_Invalid(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	if err := (&MoodAddCmd{Emoji: "  "}).Run(ctx); err == nil {
		t.Error("expected empty emoji to fail")
	}
	if err := (&MoodAddCmd{Emoji: "Good", At: "yesterday"}).Run(ctx); err == nil {
		t.Error("expected a bad --at to fail")
	}
}

func TestMoodEditAndDelete(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	if err := (&MoodAddCmd{Emoji: "Good", Note: "fine"}).Run(ctx); err != nil {
		t.Fatalf("mood add failed: %v", err)
	}
	entries, _ := ctx.Repo.GetAllMoods()
	id := entries[0].ID

	sad := "😢"
	empty := ""
	if err := (&MoodEditCmd{ID: id, Emoji: &sad, Note: &empty}).Run(ctx); err != nil {
		t.Fatalf("mood edit failed: %v", err)
	}
	entries, _ = ctx.Repo.GetAllMoods()
	if entries[0].Emoji != sad || entries[0].Note != nil {
		t.Errorf("edit not applied: %+v", entries[0])
	}
	if entries[0].Score >= 5 {
		t.Errorf("expected the score to follow the new emoji, got %d", entries[0].Score)
	}

	if err := (&MoodDeleteCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("mood delete failed: %v", err)
	}
	entries, _ = ctx.Repo.GetAllMoods()
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}

	if err := (&MoodDeleteCmd{ID: id}).Run(ctx); err == nil {
		t.Error("expected deleting a missing entry to fail")
	}
}

func TestMoodListAndPalette(t *testing.T) {
	ctx, cleanup := setupTestContext(t)
	defer cleanup()

	if err := (&MoodListCmd{Days: 7}).Run(ctx); err != nil {
		t.Errorf("mood list on empty store failed: %v", err)
	}
	if err := (&MoodAddCmd{Emoji: "Neutral"}).Run(ctx); err != nil {
		t.Fatalf("mood add failed: %v", err)
	}
	if err := (&MoodListCmd{}).Run(ctx); err != nil {
		t.Errorf("mood list failed: %v", err)
	}
	if err := (&MoodPaletteCmd{}).Run(ctx); err != nil {
		t.Errorf("mood palette failed: %v", err)
	}
}

package system

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/config"
	"github.com/julianstephens/strive/internal/repository"
	"github.com/julianstephens/strive/internal/storage/sqlite"
)

var fixedNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

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

	ctx, err := cli.NewContext(&cfg, store, repository.WithClock(func() time.Time { return fixedNow }))
	if err != nil {
		t.Fatalf("failed to create context: %v", err)
	}

	cleanup := func() {
		store.Close()
	}
	return ctx, cleanup
}

package widget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/strive/internal/logger"
)

// FileRefresher rewrites a JSON snapshot of the summary on every refresh.
type FileRefresher struct {
	src  Source
	path string
}

func NewFileRefresher(src Source, path string) *FileRefresher {
	return &FileRefresher{src: src, path: path}
}

func (f *FileRefresher) Path() string {
	return f.path
}

// RefreshAll recomputes the summary and replaces the snapshot file.
func (f *FileRefresher) RefreshAll() error {
	s, err := Load(f.src)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create widget directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".widget-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace widget snapshot: %w", err)
	}
	logger.Debug("Widget snapshot refreshed", "path", f.path, "percent", s.OverallPercent)
	return nil
}

// ReadSnapshot loads a snapshot written by RefreshAll.
func ReadSnapshot(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return Summary{}, fmt.Errorf("invalid widget snapshot: %w", err)
	}
	return s, nil
}

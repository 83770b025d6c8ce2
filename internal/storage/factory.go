package storage

import (
	"fmt"
	"path/filepath"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/storage/badger"
	"github.com/julianstephens/strive/internal/storage/postgres"
	"github.com/julianstephens/strive/internal/storage/sqlite"
)

// Options selects and locates a backend.
type Options struct {
	// Backend is one of sqlite, json, badger, postgres or memory. Empty means sqlite.
	Backend string
	// DataDir holds the default file locations.
	DataDir string
	// Path overrides the backend's default file or directory.
	Path string
	// PostgresURL is a password-free connection string.
	PostgresURL string
}

// New builds the store described by opts without opening it.
func New(opts Options) (Store, error) {
	path := func(def string) string {
		if opts.Path != "" {
			return opts.Path
		}
		return filepath.Join(opts.DataDir, def)
	}

	switch opts.Backend {
	case "", constants.BackendSQLite:
		return sqlite.NewStore(path(constants.DefaultDBFile)), nil
	case constants.BackendJSON:
		return NewJSONStore(path(constants.DefaultJSONFile)), nil
	case constants.BackendBadger:
		return badger.New(badger.DefaultConfig(path(constants.DefaultBadgerDir))), nil
	case constants.BackendPostgres:
		if opts.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires a connection string")
		}
		return postgres.New(opts.PostgresURL)
	case constants.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected sqlite, json, badger, postgres or memory)", opts.Backend)
	}
}

// Open builds the store and loads it. Use New followed by Init to create one.
func Open(opts Options) (Store, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

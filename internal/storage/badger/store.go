// Package badger provides a key-value store backed by an embedded BadgerDB.
package badger

import (
	"errors"
	"fmt"
	"os"

	dgbadger "github.com/dgraph-io/badger/v4"

	"github.com/julianstephens/strive/internal/logger"
)

// keyPrefix namespaces strive keys so Clear can drop them without touching anything else.
var keyPrefix = []byte("strive/")

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory disables disk persistence. Used by tests.
	InMemory bool

	// SyncWrites fsyncs each write before returning.
	SyncWrites bool
}

// DefaultConfig returns the configuration used for on-disk stores.
func DefaultConfig(path string) Config {
	return Config{
		Path:       path,
		SyncWrites: true,
	}
}

// InMemoryConfig returns a configuration with no disk I/O.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger routes BadgerDB's internal logging into the application logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

// Store implements the key-value store contract on top of BadgerDB.
type Store struct {
	cfg Config
	db  *dgbadger.DB
}

func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	if !s.cfg.InMemory && s.cfg.Path == "" {
		return errors.New("path is required for persistent database")
	}

	var opts dgbadger.Options
	if s.cfg.InMemory {
		opts = dgbadger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(s.cfg.Path, 0700); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", s.cfg.Path, err)
		}
		opts = dgbadger.DefaultOptions(s.cfg.Path)
	}
	opts = opts.WithSyncWrites(s.cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{})

	db, err := dgbadger.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to open badger database: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Init() error {
	return s.open()
}

func (s *Store) Load() error {
	if !s.cfg.InMemory {
		if _, err := os.Stat(s.cfg.Path); os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'strive init' first")
		}
	}
	return s.open()
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Path() string {
	if s.cfg.InMemory {
		return "badger (in-memory)"
	}
	return s.cfg.Path
}

func prefixed(key string) []byte {
	return append(append([]byte{}, keyPrefix...), key...)
}

func (s *Store) Get(key string) (string, bool, error) {
	if s.db == nil {
		return "", false, fmt.Errorf("storage not loaded")
	}

	var value string
	err := s.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get(prefixed(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Set(prefixed(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *Store) Clear() error {
	if s.db == nil {
		return fmt.Errorf("storage not loaded")
	}
	if err := s.db.DropPrefix(keyPrefix); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

func (s *Store) Keys() ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage not loaded")
	}

	var keys []string
	err := s.db.View(func(txn *dgbadger.Txn) error {
		opts := dgbadger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = keyPrefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().KeyCopy(nil)
			keys = append(keys, string(k[len(keyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// RunGC reclaims value log space. It is safe to call while the store is in use.
func (s *Store) RunGC() error {
	if s.db == nil || s.cfg.InMemory {
		return nil
	}
	for {
		if err := s.db.RunValueLogGC(0.5); err != nil {
			if errors.Is(err, dgbadger.ErrNoRewrite) {
				return nil
			}
			return fmt.Errorf("value log gc: %w", err)
		}
	}
}

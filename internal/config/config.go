// Package config loads strive settings from a YAML file and STRIVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/storage/postgres"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
	envPrefix         = "STRIVE_"
)

// Config is the process-level configuration. Per-user app settings live in the store.
type Config struct {
	DataDir  string         `koanf:"data_dir"`
	Debug    bool           `koanf:"debug"`
	Timezone string         `koanf:"timezone"`
	Store    StoreConfig    `koanf:"store"`
	Widget   WidgetConfig   `koanf:"widget"`
	Backup   BackupConfig   `koanf:"backup"`
	Notifier NotifierConfig `koanf:"notifier"`
}

type StoreConfig struct {
	Backend string `koanf:"backend"`
	Path    string `koanf:"path"`
	// PostgresURL must not carry a password; use the keyring for that.
	PostgresURL string `koanf:"postgres_url"`
}

type WidgetConfig struct {
	SnapshotPath string `koanf:"snapshot_path"`
}

type BackupConfig struct {
	MaxBackups int `koanf:"max_backups"`
}

type NotifierConfig struct {
	Enabled  bool `koanf:"enabled"`
	QuickAdd bool `koanf:"quick_add"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DataDir: constants.DefaultDataDir,
		Store:   StoreConfig{Backend: constants.BackendSQLite},
		Backup:  BackupConfig{MaxBackups: constants.MaxBackups},
		Notifier: NotifierConfig{
			Enabled: true,
		},
	}
}

// DefaultPath is ~/.config/strive/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", constants.AppName, constants.DefaultConfigFile), nil
}

// Load reads configuration from path, then overrides it with environment variables.
//
// Precedence (highest to lowest):
//  1. STRIVE_* environment variables (STRIVE_STORE_BACKEND -> store.backend)
//  2. YAML config file
//  3. Defaults
//
// An empty path means DefaultPath. A missing file is not an error. An existing
// file must be 0600 or 0400 and at most 1MB.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	content, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	if content != nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// envKey maps STRIVE_SECTION_FIELD_NAME to section.field_name. Top-level keys
// keep their underscores (STRIVE_DATA_DIR -> data_dir).
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 2 {
		switch parts[0] {
		case "store", "widget", "backup", "notifier":
			return parts[0] + "." + parts[1]
		}
	}
	return lower
}

// readConfigFile returns nil content when the file does not exist.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if err := validateConfigFileProperties(info); err != nil {
		return nil, fmt.Errorf("config file validation failed: %w", err)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// validateConfigFileProperties checks permissions and size on an open file.
func validateConfigFileProperties(info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", info.Name())
	}

	// Skip on Windows (different permission model)
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

func applyDefaults(cfg *Config) error {
	if cfg.DataDir == "" {
		cfg.DataDir = constants.DefaultDataDir
	}
	dataDir, err := ExpandPath(cfg.DataDir)
	if err != nil {
		return err
	}
	cfg.DataDir = dataDir

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = constants.BackendSQLite
	}
	if cfg.Store.Path != "" {
		if cfg.Store.Path, err = ExpandPath(cfg.Store.Path); err != nil {
			return err
		}
	}

	if cfg.Widget.SnapshotPath == "" {
		cfg.Widget.SnapshotPath = filepath.Join(cfg.DataDir, constants.DefaultWidgetFile)
	} else if cfg.Widget.SnapshotPath, err = ExpandPath(cfg.Widget.SnapshotPath); err != nil {
		return err
	}

	return nil
}

// Overrides are command-line values that win over the file and environment.
type Overrides struct {
	Backend string
	DataDir string
	Debug   bool
}

// Apply merges o into c and revalidates. A snapshot path that followed the
// old data directory moves with it.
func (c *Config) Apply(o Overrides) error {
	if o.DataDir != "" {
		dir, err := ExpandPath(o.DataDir)
		if err != nil {
			return err
		}
		if c.Widget.SnapshotPath == filepath.Join(c.DataDir, constants.DefaultWidgetFile) {
			c.Widget.SnapshotPath = filepath.Join(dir, constants.DefaultWidgetFile)
		}
		c.DataDir = dir
	}
	if o.Backend != "" {
		c.Store.Backend = o.Backend
	}
	if o.Debug {
		c.Debug = true
	}
	return c.Validate()
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case constants.BackendSQLite, constants.BackendJSON, constants.BackendBadger,
		constants.BackendPostgres, constants.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Store.PostgresURL != "" {
		if err := postgres.ValidateConnString(c.Store.PostgresURL); err != nil {
			return fmt.Errorf("store.postgres_url: %w", err)
		}
	}

	if c.Backup.MaxBackups < 1 {
		return fmt.Errorf("backup.max_backups must be at least 1, got %d", c.Backup.MaxBackups)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	return nil
}

// Location resolves Timezone. Empty means the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// EnsureDataDir creates the data directory with 0700 permissions.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", c.DataDir, err)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/strive/internal/backup"
	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/cli/backups"
	"github.com/julianstephens/strive/internal/cli/data"
	"github.com/julianstephens/strive/internal/cli/habits"
	"github.com/julianstephens/strive/internal/cli/moods"
	"github.com/julianstephens/strive/internal/cli/profile"
	"github.com/julianstephens/strive/internal/cli/settings"
	"github.com/julianstephens/strive/internal/cli/system"
	"github.com/julianstephens/strive/internal/cli/ticks"
	"github.com/julianstephens/strive/internal/config"
	"github.com/julianstephens/strive/internal/constants"
	apperrors "github.com/julianstephens/strive/internal/errors"
	"github.com/julianstephens/strive/internal/keyring"
	"github.com/julianstephens/strive/internal/logger"
	"github.com/julianstephens/strive/internal/migration"
	"github.com/julianstephens/strive/internal/notifier"
	"github.com/julianstephens/strive/internal/repository"
	"github.com/julianstephens/strive/internal/storage"
	"github.com/julianstephens/strive/internal/storage/postgres"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `name:"config" help:"Config file path (default: ~/.config/strive/config.yaml)." type:"path"`
	Backend    string `help:"Storage backend override: sqlite, json, badger, postgres or memory."`
	DataDir    string `help:"Data directory override." type:"path"`
	Verbose    bool   `name:"debug" help:"Log debug output to stderr."`

	Init     system.InitCmd       `cmd:"" help:"Initialize strive storage."`
	Signup   profile.SignupCmd    `cmd:"" help:"Create your profile."`
	Profile  profile.ProfileCmd   `cmd:"" help:"Show or update your profile."`
	Habit    habits.HabitCmd      `cmd:"" help:"Manage habits."`
	Tick     ticks.TickCmd        `cmd:"" help:"Record habit progress."`
	Mood     moods.MoodCmd        `cmd:"" help:"Log and review moods."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Data     data.DataCmd         `cmd:"" help:"Export, import or reset all data."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage backups."`
	Reminders system.RemindersCmd `cmd:"" help:"List, run or fire reminders."`
	Widget    system.WidgetCmd    `cmd:"" help:"Show the home-screen widget."`
	Doctor    system.DoctorCmd    `cmd:"" help:"Run health checks and diagnostics."`
	Config    system.ConfigCmd    `cmd:"" help:"Manage the postgres connection in the OS keyring."`
	Debug     system.DebugCmd     `cmd:"" help:"Debug commands for troubleshooting."`
	Tui       system.TuiCmd       `cmd:"" help:"Launch the interactive dashboard." default:"1"`
}

func init() {
	apperrors.RegisterHint(repository.ErrCorruptState, fmt.Sprintf("run '%s doctor', then restore with '%s backup restore'", constants.AppName, constants.AppName))
	apperrors.RegisterHint(postgres.ErrEmbeddedCredentials, fmt.Sprintf("store the password with '%s config set-connection' or use .pgpass", constants.AppName))
	apperrors.RegisterHint(keyring.ErrNotFound, fmt.Sprintf("run '%s config set-connection <url>'", constants.AppName))
	apperrors.RegisterHint(keyring.ErrKeyringUnavailable, "set store.postgres_url in the config file or STRIVE_STORE_POSTGRES_URL")
	apperrors.RegisterHint(migration.ErrSchemaTooNew, "upgrade strive to a version that knows this schema")
	apperrors.RegisterHint(backup.ErrNotBackup, "pass a file written by 'strive backup create' or 'strive data export --format csv'")
	apperrors.RegisterHint(cli.ErrHabitNotFound, fmt.Sprintf("list habits with '%s habit list'", constants.AppName))
	apperrors.RegisterHint(notifier.ErrTrayNotRunning, "start strive-tray or run with --dry-run")
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit, mood and hydration tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigFile)
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := cfg.Apply(config.Overrides{Backend: CLI.Backend, DataDir: CLI.DataDir, Debug: CLI.Verbose}); err != nil {
		apperrors.Fatal(err)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: cfg.DataDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := openStore(cfg, ctx.Command())
	if err != nil {
		apperrors.Fatal(err)
	}

	appCtx, err := cli.NewContext(cfg, store)
	if err != nil {
		store.Close()
		apperrors.Fatal(err)
	}

	logger.Debug("Running command", "command", ctx.Command(), "backend", cfg.Store.Backend)
	err = ctx.Run(appCtx)
	if cerr := store.Close(); cerr != nil {
		logger.Warn("Failed to close store", "error", cerr)
	}
	if err != nil {
		apperrors.Fatal(err)
	}
}

// openStore builds the configured store. Init and doctor load it themselves.
// Keyring management never reads data, so it gets an in-memory store and
// works before a postgres connection is configured.
func openStore(cfg *config.Config, command string) (storage.Store, error) {
	if strings.HasPrefix(command, "config") {
		return storage.NewMemoryStore(), nil
	}

	opts := storage.Options{
		Backend: cfg.Store.Backend,
		DataDir: cfg.DataDir,
		Path:    cfg.Store.Path,
	}
	if cfg.Store.Backend == constants.BackendPostgres {
		connStr, err := keyring.ResolveConnectionString(cfg.Store.PostgresURL)
		if err != nil {
			return nil, err
		}
		opts.PostgresURL = connStr
	}

	store, err := storage.New(opts)
	if err != nil {
		return nil, err
	}

	if skipsLoad(command) {
		return store, nil
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	return store, nil
}

func skipsLoad(command string) bool {
	return command == "init" || command == "doctor"
}

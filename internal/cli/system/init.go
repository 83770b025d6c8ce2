package system

import (
	"fmt"
	"slices"

	"github.com/julianstephens/strive/internal/cli"
	"github.com/julianstephens/strive/internal/constants"
	"github.com/julianstephens/strive/internal/storage"
)

// storeKeys are the collections copied by init --source.
var storeKeys = []string{
	constants.KeyUserProfile,
	constants.KeyHabits,
	constants.KeyTicks,
	constants.KeyMoods,
	constants.KeySettings,
}

type InitCmd struct {
	Force         bool   `help:"Erase existing data after initialization."`
	Source        string `help:"Path or connection string of a store to copy data from."`
	SourceBackend string `help:"Backend of --source." enum:"sqlite,json,badger,postgres" default:"sqlite"`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Source != "" && c.Source == ctx.Store.Path() {
		return fmt.Errorf("source and destination are the same: %s", c.Source)
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.Path())

	if c.Force {
		if err := ctx.Store.Clear(); err != nil {
			return fmt.Errorf("failed to erase existing data: %w", err)
		}
		fmt.Println("Erased existing data.")
	}

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		if err := c.migrateData(ctx); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Println("Migration completed successfully!")
	}

	// Reading seeds the built-in habits on a fresh store.
	habits, err := ctx.Repo.GetAllHabits()
	if err != nil {
		return err
	}
	fmt.Printf("%d habits ready.\n", len(habits))
	return nil
}

// migrateData copies each collection blob verbatim from the source store.
func (c *InitCmd) migrateData(ctx *cli.Context) error {
	opts := storage.Options{Backend: c.SourceBackend, Path: c.Source}
	if c.SourceBackend == constants.BackendPostgres {
		opts = storage.Options{Backend: c.SourceBackend, PostgresURL: c.Source}
	}
	source, err := storage.Open(opts)
	if err != nil {
		return fmt.Errorf("failed to load source store: %w", err)
	}
	defer source.Close()

	keys, err := source.Keys()
	if err != nil {
		return err
	}

	copied := 0
	for _, key := range keys {
		if !slices.Contains(storeKeys, key) {
			continue
		}
		value, ok, err := source.Get(key)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := ctx.Store.Set(key, value); err != nil {
			return fmt.Errorf("failed to copy %s: %w", key, err)
		}
		fmt.Printf("  Copied %s\n", key)
		copied++
	}
	fmt.Printf("    Migrated %d collections\n", copied)
	return nil
}

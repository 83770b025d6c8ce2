package system

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/strive/internal/cli"
)

type DebugCmd struct {
	DBPath *DebugDBPathCmd `cmd:"" help:"Show storage location and backend."`
	Keys   *DebugKeysCmd   `cmd:"" help:"List stored keys."`
	Dump   *DebugDumpCmd   `cmd:"" help:"Dump a stored value as indented JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	output := map[string]string{
		"backend":  ctx.Config.Store.Backend,
		"path":     ctx.Store.Path(),
		"data_dir": ctx.Config.DataDir,
	}

	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	fmt.Println(string(jsonBytes))
	return nil
}

type DebugKeysCmd struct{}

func (cmd *DebugKeysCmd) Run(ctx *cli.Context) error {
	keys, err := ctx.Store.Keys()
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

type DebugDumpCmd struct {
	Key string `arg:"" help:"Store key to dump (see 'debug keys')."`
}

func (cmd *DebugDumpCmd) Run(ctx *cli.Context) error {
	raw, ok, err := ctx.Store.Get(cmd.Key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Key, err)
	}
	if !ok {
		return fmt.Errorf("key not found: %s", cmd.Key)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, []byte(raw), "", "  "); err != nil {
		// Not JSON; print as stored.
		fmt.Println(raw)
		return nil
	}
	fmt.Println(out.String())
	return nil
}

package data

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/strive/internal/backup"
	"github.com/julianstephens/strive/internal/cli"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

type DataCmd struct {
	Export DataExportCmd `cmd:"" help:"Export all data."`
	Import DataImportCmd `cmd:"" help:"Import data from a JSON bundle or CSV backup."`
	Reset  DataResetCmd  `cmd:"" help:"Erase all data and restore the built-in habits."`
}

type DataExportCmd struct {
	Format string `help:"Output format." enum:"json,csv" default:"json"`
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
}

func (c *DataExportCmd) Run(ctx *cli.Context) error {
	var buf bytes.Buffer
	switch c.Format {
	case formatCSV:
		if err := backup.Export(&buf, ctx.Repo); err != nil {
			return err
		}
	default:
		data, err := ctx.Repo.ExportAllToJSON()
		if err != nil {
			return err
		}
		buf.WriteString(data)
		buf.WriteByte('\n')
	}

	if c.Output == "" {
		_, err := io.Copy(os.Stdout, &buf)
		return err
	}
	if err := os.WriteFile(c.Output, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ Exported to %s\n", c.Output)
	return nil
}

type DataImportCmd struct {
	File   string `arg:"" help:"File to import ('-' for stdin)."`
	Merge  bool   `help:"Merge into existing data instead of replacing it (JSON only)."`
	Format string `help:"Input format (default: detect)." enum:"auto,json,csv" default:"auto"`
}

func (c *DataImportCmd) Run(ctx *cli.Context) error {
	var (
		content []byte
		err     error
	)
	if c.File == "-" {
		content, err = io.ReadAll(os.Stdin)
	} else {
		content, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	format := c.Format
	if format == "auto" {
		format = detectFormat(c.File, content)
	}
	if format == formatCSV && c.Merge {
		return fmt.Errorf("--merge is only supported for JSON bundles")
	}

	ctx.PerformAutomaticBackup()

	switch format {
	case formatCSV:
		if err := backup.Import(bytes.NewReader(content), ctx.Repo); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	default:
		if err := ctx.Repo.ImportFromJSON(string(content), c.Merge); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
	}

	ctx.Repo.RefreshWidget()

	mode := "replaced"
	if c.Merge {
		mode = "merged"
	}
	fmt.Printf("✓ Data %s from %s\n", mode, c.File)
	return nil
}

func detectFormat(path string, content []byte) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return formatCSV
	}
	if bytes.HasPrefix(bytes.TrimSpace(content), []byte(strings.Join(backup.Header, ","))) {
		return formatCSV
	}
	return formatJSON
}

type DataResetCmd struct {
	Yes bool `short:"y" help:"Skip confirmation."`
}

func (c *DataResetCmd) Run(ctx *cli.Context) error {
	ok, err := cli.Confirm("Erase all strive data?", "Profile, habits, progress, moods and settings are removed. A backup is written first.", c.Yes)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Reset cancelled.")
		return nil
	}

	ctx.PerformAutomaticBackup()
	if err := ctx.Repo.ResetAll(); err != nil {
		return err
	}
	ctx.Repo.RefreshWidget()
	fmt.Println("✓ All data erased. Built-in habits restored.")
	return nil
}

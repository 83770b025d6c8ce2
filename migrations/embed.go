package migrations

import "embed"

// FS holds the SQL migrations for every SQL backend, one directory per dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

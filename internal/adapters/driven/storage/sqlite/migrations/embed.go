// Package migrations carries the SQLite schema as embedded *.up.sql
// files, applied in numeric-prefix order by the store.
package migrations

import "embed"

// FS holds the migration files compiled into the binary.
//
//go:embed *.sql
var FS embed.FS

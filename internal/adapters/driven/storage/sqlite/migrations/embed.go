// Package migrations holds the versioned schema for the key/value and
// document tables. Files are named NNN_name.up.sql / NNN_name.down.sql.
package migrations

import "embed"

// FS holds every migration, embedded at compile time.
//
//go:embed *.sql
var FS embed.FS

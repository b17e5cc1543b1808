// Package migrations embeds the narrative schema migrations.
package migrations

import "embed"

// FS holds the narrative schema migration files.
//
//go:embed *.sql
var FS embed.FS

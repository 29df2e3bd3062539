// Package migrations embeds the SQL migrations so binaries can migrate
// without a migrations directory on disk.
package migrations

import "embed"

// FS holds the *.sql migration files
//
//go:embed *.sql
var FS embed.FS

package migrations

import "embed"

// FS holds the ordered schema migrations applied by db.Migrate.
//
//go:embed *.sql
var FS embed.FS

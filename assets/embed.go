// assets/embed.go
//
// Embedded resources shipped inside the binary.
//   - sql/*.sql: schema migrations, applied in lexical order by store.Migrate.

package assets

import "embed"

// FS holds the embedded migration scripts.
//
//go:embed sql/*.sql
var FS embed.FS

// MigrationsDir is the directory within FS that holds migration scripts.
const MigrationsDir = "sql"

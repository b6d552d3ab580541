// ABOUTME: Embeds the canonical migration files shipped with the binary.
// ABOUTME: Files returns them as an fs.FS rooted at the migrations directory.

package migrate

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Files returns the embedded migration files.
func Files() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return sub
}

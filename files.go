package auth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the schema files for the local auth store
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

package db

import "embed"

// MigrationFS embeds per-flavor SQL migration files from internal/db/migrations.
// Used by the migrate runner (cmd/migrate and server startup for sqlite).
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationFS embed.FS

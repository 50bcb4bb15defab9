package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for player stats and the word vocabulary.
var Migrations = migrate.NewMigrations()

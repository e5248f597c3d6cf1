package migrations

import "github.com/uptrace/bun/migrate"

// Migrations holds the schema for question sets and the solo leaderboard.
var Migrations = migrate.NewMigrations()

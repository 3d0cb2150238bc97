package database

import (
	"github.com/go-gormigrate/gormigrate/v2"
	_ "github.com/leonardo-io/leonardo/internal/database/migration_20261012_0000"
	_ "github.com/leonardo-io/leonardo/internal/database/migration_20261019_0000"
	_ "github.com/leonardo-io/leonardo/internal/database/migration_20261020_0000"
	"github.com/leonardo-io/leonardo/internal/database/migrations"
)

// Migrations returns the schema history of the apiserver database.
func Migrations() *migrations.Migrations {
	return &migrations.Migrations{
		GormOptions: &gormigrate.Options{
			TableName:      "apiserver_migrations",
			IDColumnName:   "id",
			IDColumnSize:   40,
			UseTransaction: false,
		},
		Migrations: migrations.Registered(),
	}
}

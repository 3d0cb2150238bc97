package migrations

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/database/migrations")
}

var (
	registryMu sync.Mutex
	registry   []*gormigrate.Migration
)

// Registered returns every migration created with CreateMigrationFromActions, sorted by ID.
func Registered() []*gormigrate.Migration {
	registryMu.Lock()
	defer registryMu.Unlock()
	result := append([]*gormigrate.Migration(nil), registry...)
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

type Migrations struct {
	Migrations  []*gormigrate.Migration
	GormOptions *gormigrate.Options
}

func (m *Migrations) Migrate(ctx context.Context, db *gorm.DB) error {
	_, span := tracer.Start(ctx, "Migrate")
	defer span.End()
	return gormigrate.New(db.WithContext(ctx), m.GormOptions, m.Migrations).Migrate()
}

// MigrateTo applies migrations up to and including migrationID.
// This should be for testing purposes mainly
func (m *Migrations) MigrateTo(ctx context.Context, db *gorm.DB, migrationID string) error {
	_, span := tracer.Start(ctx, "MigrateTo")
	defer span.End()
	return gormigrate.New(db.WithContext(ctx), m.GormOptions, m.Migrations).MigrateTo(migrationID)
}

func (m *Migrations) RollbackLast(ctx context.Context, db *gorm.DB) error {
	_, span := tracer.Start(ctx, "RollbackLast")
	defer span.End()

	gm := gormigrate.New(db.WithContext(ctx), m.GormOptions, m.Migrations)
	if err := gm.RollbackLast(); err != nil {
		return err
	}
	return m.deleteMigrationTableIfEmpty(db)
}

func (m *Migrations) deleteMigrationTableIfEmpty(db *gorm.DB) error {
	if !db.Migrator().HasTable(m.GormOptions.TableName) {
		return nil
	}
	count, err := m.CountMigrationsApplied(db)
	if err != nil {
		return err
	}
	if count == 0 {
		if err := db.Migrator().DropTable(m.GormOptions.TableName); err != nil {
			return fmt.Errorf("could not drop migration table: %w", err)
		}
	}
	return nil
}

func (m *Migrations) CountMigrationsApplied(db *gorm.DB) (int, error) {
	if !db.Migrator().HasTable(m.GormOptions.TableName) {
		return 0, nil
	}
	sql := fmt.Sprintf("SELECT count(%s) AS id FROM %s", m.GormOptions.IDColumnName, m.GormOptions.TableName)
	var count int
	if err := db.Raw(sql).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MigrationAction applies a schema change when apply is true and reverts it otherwise.
type MigrationAction func(tx *gorm.DB, apply bool) error

func callerOf() string {
	if _, file, no, ok := runtime.Caller(2); ok {
		return fmt.Sprintf("[ %s:%d ]", file, no)
	}
	return ""
}

func CreateTableAction(table interface{}) MigrationAction {
	caller := callerOf()
	return func(tx *gorm.DB, apply bool) error {
		var err error
		if apply {
			err = tx.AutoMigrate(table)
		} else {
			err = tx.Migrator().DropTable(table)
		}
		return errors.Wrap(err, caller)
	}
}

func AddTableColumnAction(table interface{}, columnName string) MigrationAction {
	caller := callerOf()
	return func(tx *gorm.DB, apply bool) error {
		var err error
		if apply {
			err = tx.Migrator().AddColumn(table, columnName)
		} else {
			err = tx.Migrator().DropColumn(table, columnName)
		}
		return errors.Wrap(err, caller)
	}
}

func ExecAction(applySql string, unapplySql string) MigrationAction {
	caller := callerOf()
	return func(tx *gorm.DB, apply bool) error {
		sql := unapplySql
		if apply {
			sql = applySql
		}
		if sql == "" {
			return nil
		}
		return errors.Wrap(tx.Exec(sql).Error, caller)
	}
}

// ExecActionIf is like ExecAction but only runs when the dialector named by
// dialector is in use. This is used for DDL that only one database understands.
func ExecActionIf(applySql string, unapplySql string, dialector string) MigrationAction {
	exec := ExecAction(applySql, unapplySql)
	return func(tx *gorm.DB, apply bool) error {
		if tx.Dialector.Name() != dialector {
			return nil
		}
		return exec(tx, apply)
	}
}

// CreateMigrationFromActions builds a migration out of actions and registers it.
// Rollback runs the actions in reverse order.
func CreateMigrationFromActions(id string, actions ...MigrationAction) *gormigrate.Migration {
	migration := &gormigrate.Migration{
		ID: id,
		Migrate: func(tx *gorm.DB) error {
			for _, action := range actions {
				if err := action(tx, true); err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			for i := len(actions) - 1; i >= 0; i-- {
				if err := actions[i](tx, false); err != nil {
					return err
				}
			}
			return nil
		},
	}
	registryMu.Lock()
	registry = append(registry, migration)
	registryMu.Unlock()
	return migration
}

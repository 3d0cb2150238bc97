package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewTestDatabase(context.Background(), zaptest.NewLogger(t).Sugar(), t.TempDir())
	require.NoError(t, err)
	return db
}

func seedDevice(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(`INSERT INTO users (id, created_at, updated_at) VALUES ('f606de8d-092d-4606-b981-80ce9f5a3b2a', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO devices (device_id, claim_digest, status, plan, created_at, updated_at) VALUES ('UNIT-0001', 'abcd', 'active', 'standard', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error)
}

func insertLocation(db *gorm.DB, active bool) error {
	return db.Exec(`INSERT INTO location_records (device_id, latitude, longitude, recorded_by, recorded_at, is_active)
		VALUES ('UNIT-0001', 35.6895, 139.6917, 'f606de8d-092d-4606-b981-80ce9f5a3b2a', CURRENT_TIMESTAMP, ?)`, active).Error
}

func TestMigrationsCreateSchema(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	for _, table := range []string{"users", "devices", "location_records", "detection_events", "notification_intents"} {
		require.True(db.Migrator().HasTable(table), table)
	}
	require.True(db.Migrator().HasColumn("devices", "last_seen_at"))

	count, err := Migrations().CountMigrationsApplied(db)
	require.NoError(err)
	require.Equal(3, count)
}

func TestActiveLocationIndex(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	seedDevice(t, db)

	require.NoError(insertLocation(db, true))
	// any number of inactive rows is fine
	require.NoError(insertLocation(db, false))
	require.NoError(insertLocation(db, false))

	err := insertLocation(db, true)
	require.Error(err)
	require.True(IsDuplicateError(err))
}

func insertEvent(db *gorm.DB, deviceID string) error {
	return db.Exec(`INSERT INTO detection_events (device_id, detected_at, category, confidence, location_mismatch, offline, created_at)
		VALUES (?, CURRENT_TIMESTAMP, 'bear', 0.9, false, false, CURRENT_TIMESTAMP)`, deviceID).Error
}

func TestDeviceForeignKey(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	seedDevice(t, db)

	require.Error(insertEvent(db, "UNIT-9999"))
	require.NoError(insertEvent(db, "UNIT-0001"))

	// the recorder exists, only the device is unknown
	err := db.Exec(`INSERT INTO location_records (device_id, latitude, longitude, recorded_by, recorded_at, is_active)
		VALUES ('UNIT-9999', 35.6895, 139.6917, 'f606de8d-092d-4606-b981-80ce9f5a3b2a', CURRENT_TIMESTAMP, true)`).Error
	require.Error(err)
	require.NoError(insertLocation(db, true))

	err = db.Exec(`UPDATE detection_events SET device_id = 'UNIT-9999' WHERE device_id = 'UNIT-0001'`).Error
	require.Error(err)

	var count int64
	require.NoError(db.Table("detection_events").Where("device_id = ?", "UNIT-9999").Count(&count).Error)
	require.Zero(count)
	require.NoError(db.Table("location_records").Where("device_id = ?", "UNIT-9999").Count(&count).Error)
	require.Zero(count)
}

func TestRollbackLast(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	m := Migrations()
	require.NoError(m.RollbackLast(context.Background(), db))
	require.NoError(m.RollbackLast(context.Background(), db))
	require.False(db.Migrator().HasTable("notification_intents"))
	require.False(db.Migrator().HasColumn("devices", "last_seen_at"))

	require.NoError(m.Migrate(context.Background(), db))
	require.True(db.Migrator().HasTable("notification_intents"))
}

func TestMigrateTo(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	ctx := context.Background()

	m := Migrations()
	for i := 0; i < 3; i++ {
		require.NoError(m.RollbackLast(ctx, db))
	}
	// the bookkeeping table goes away with the last migration
	require.False(db.Migrator().HasTable("apiserver_migrations"))
	require.False(db.Migrator().HasTable("devices"))

	require.NoError(m.MigrateTo(ctx, db, "20261012-0000"))
	require.True(db.Migrator().HasTable("devices"))
	require.False(db.Migrator().HasTable("notification_intents"))
	count, err := m.CountMigrationsApplied(db)
	require.NoError(err)
	require.Equal(1, count)
}

func TestGetTransactionFunc(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)
	seedDevice(t, db)

	transaction, dialect, err := GetTransactionFunc(db)
	require.NoError(err)
	require.Equal(DialectSqlLite, dialect)

	boom := errors.New("boom")
	err = transaction(context.Background(), func(tx *gorm.DB) error {
		if err := insertLocation(tx, true); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(err, boom)

	var count int64
	require.NoError(db.Table("location_records").Count(&count).Error)
	require.Zero(count)
}

func TestIsDuplicateError(t *testing.T) {
	require.False(t, IsDuplicateError(nil))
	require.False(t, IsDuplicateError(errors.New("connection refused")))
	require.True(t, IsDuplicateError(gorm.ErrDuplicatedKey))
}

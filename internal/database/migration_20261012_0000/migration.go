package migration_20261012_0000

import (
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database/datatype"
	. "github.com/leonardo-io/leonardo/internal/database/migrations"
)

// Migrations rules:
//
//  1. IDs are timestamps that must sort ascending, formatted YYYYMMDD-HHMM.
//  2. Models are declared inline so the migration keeps working when the
//     models in internal/models evolve.
//  3. Migrations must be backwards compatible.

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Device struct {
	DeviceID           string     `gorm:"primaryKey;size:30"`
	OwnerID            *uuid.UUID `gorm:"type:uuid;index"`
	Owner              *User      `gorm:"foreignKey:OwnerID"`
	ClaimDigest        string     `gorm:"size:64;not null"`
	AccessToken        *string    `gorm:"size:64"`
	Status             string     `gorm:"size:20;not null"`
	Plan               string     `gorm:"size:20;not null"`
	NotificationTarget string     `gorm:"type:JSON"`
	DetectionTargets   datatype.StringArray
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type LocationRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	DeviceID   string    `gorm:"size:30;not null"`
	Latitude   float64   `gorm:"type:numeric(10,8);not null"`
	Longitude  float64   `gorm:"type:numeric(11,8);not null"`
	PrecisionM *float64  `gorm:"type:numeric(8,2)"`
	Region     string    `gorm:"size:100"`
	RecordedBy uuid.UUID `gorm:"type:uuid;not null"`
	Recorder   *User     `gorm:"foreignKey:RecordedBy"`
	SourceIP   string    `gorm:"size:45"`
	RecordedAt time.Time `gorm:"not null"`
	IsActive   bool      `gorm:"not null"`
}

type DetectionEvent struct {
	ID               int64     `gorm:"primaryKey;autoIncrement"`
	DeviceID         string    `gorm:"size:30;not null"`
	DetectedAt       time.Time `gorm:"not null"`
	Category         string    `gorm:"size:20;not null"`
	Confidence       float64   `gorm:"type:numeric(5,4);not null"`
	MediaRef         *string   `gorm:"size:255"`
	SourceIP         *string   `gorm:"size:45"`
	ResolvedRegion   *string   `gorm:"size:100"`
	DistanceKm       *float64  `gorm:"type:numeric(10,3)"`
	LocationMismatch bool      `gorm:"not null"`
	Offline          bool      `gorm:"not null"`
	CreatedAt        time.Time
}

func init() {
	migrationId := "20261012-0000"
	CreateMigrationFromActions(migrationId,
		CreateTableAction(&User{}),
		CreateTableAction(&Device{}),
		ExecAction(
			`CREATE UNIQUE INDEX IF NOT EXISTS "idx_devices_access_token" ON "devices" ("access_token")`,
			`DROP INDEX IF EXISTS "idx_devices_access_token"`,
		),
		CreateTableAction(&LocationRecord{}),
		// The single active location per device is enforced here, not in application code.
		ExecAction(
			`CREATE UNIQUE INDEX IF NOT EXISTS "idx_location_records_active" ON "location_records" ("device_id") WHERE is_active`,
			`DROP INDEX IF EXISTS "idx_location_records_active"`,
		),
		ExecAction(
			`CREATE INDEX IF NOT EXISTS "idx_location_records_history" ON "location_records" ("device_id", "recorded_at")`,
			`DROP INDEX IF EXISTS "idx_location_records_history"`,
		),
		CreateTableAction(&DetectionEvent{}),
		ExecAction(
			`CREATE INDEX IF NOT EXISTS "idx_detection_events_device" ON "detection_events" ("device_id", "detected_at")`,
			`DROP INDEX IF EXISTS "idx_detection_events_device"`,
		),
	)
}

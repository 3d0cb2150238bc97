package migration_20261019_0000

import (
	"time"

	"github.com/google/uuid"
	. "github.com/leonardo-io/leonardo/internal/database/migrations"
)

type Device struct {
	LastSeenAt *time.Time
}

type NotificationIntent struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;"`
	DeviceID  string    `gorm:"size:30;not null"`
	EventID   int64     `gorm:"not null"`
	Kind      string    `gorm:"size:32;not null"`
	Payload   string    `gorm:"not null"`
	State     string    `gorm:"size:16;not null;index"`
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func init() {
	migrationId := "20261019-0000"
	CreateMigrationFromActions(migrationId,
		AddTableColumnAction(&Device{}, "last_seen_at"),
		CreateTableAction(&NotificationIntent{}),
		ExecAction(
			`CREATE UNIQUE INDEX IF NOT EXISTS "idx_notification_intents_event_kind" ON "notification_intents" ("event_id", "kind")`,
			`DROP INDEX IF EXISTS "idx_notification_intents_event_kind"`,
		),
	)
}

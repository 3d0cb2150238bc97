package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationKindDetection        NotificationKind = "detection"
	NotificationKindLocationMismatch NotificationKind = "location_mismatch"
)

type NotificationState string

const (
	NotificationStatePending NotificationState = "pending"
	NotificationStateSending NotificationState = "sending"
	NotificationStateSent    NotificationState = "sent"
	NotificationStateFailed  NotificationState = "failed"
)

// NotificationIntent is a pending owner notification about one event.
// There is at most one intent per event and kind.
type NotificationIntent struct {
	ID        uuid.UUID         `gorm:"type:uuid;primary_key;"`
	DeviceID  string            `gorm:"size:30;not null"`
	EventID   int64             `gorm:"not null"`
	Kind      NotificationKind  `gorm:"size:32;not null"`
	Payload   string            `gorm:"not null"`
	State     NotificationState `gorm:"size:16;not null;index"`
	Error     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

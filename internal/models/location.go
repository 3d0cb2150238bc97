package models

import (
	"time"

	"github.com/google/uuid"
)

// LocationRecord is one placement of a device. At most one record per device is active.
type LocationRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"location_id"`
	DeviceID   string    `gorm:"size:30;not null;index" json:"device_id"`
	Latitude   float64   `gorm:"type:numeric(10,8);not null" json:"lat" example:"35.6895"`
	Longitude  float64   `gorm:"type:numeric(11,8);not null" json:"lon" example:"139.6917"`
	PrecisionM *float64  `gorm:"type:numeric(8,2)" json:"accuracy,omitempty" example:"12.5"`
	Region     string    `gorm:"size:100" json:"region,omitempty" example:"東京都"`
	RecordedBy uuid.UUID `gorm:"type:uuid;not null" json:"recorded_by"`
	SourceIP   string    `gorm:"size:45" json:"-"`
	RecordedAt time.Time `gorm:"not null" json:"registered_at"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
}

// AddLocation is the request body used to place or relocate a device.
type AddLocation struct {
	Latitude   *float64 `json:"lat" example:"35.6895"`
	Longitude  *float64 `json:"lon" example:"139.6917"`
	PrecisionM *float64 `json:"accuracy" example:"12.5"`
}

// AddLocationResponse is returned after a placement.
type AddLocationResponse struct {
	LocationID int64  `json:"location_id"`
	Precision  string `json:"precision" example:"acceptable"`
	Warning    string `json:"warning,omitempty"`
}

// ActiveLocation is the active placement as reported back to a device.
type ActiveLocation struct {
	Latitude   float64   `json:"lat"`
	Longitude  float64   `json:"lon"`
	PrecisionM *float64  `json:"accuracy"`
	RecordedAt time.Time `json:"registered_at"`
}

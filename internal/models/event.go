package models

import (
	"time"
)

// DetectionEvent is one sighting reported by a device. Rows are never updated.
type DetectionEvent struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"event_id"`
	DeviceID         string    `gorm:"size:30;not null;index" json:"device_id"`
	DetectedAt       time.Time `gorm:"not null" json:"detected_at"`
	Category         string    `gorm:"size:20;not null" json:"detection_type" example:"bear"`
	Confidence       float64   `gorm:"type:numeric(5,4);not null" json:"confidence" example:"0.92"`
	MediaRef         *string   `gorm:"size:255" json:"media_ref,omitempty"`
	SourceIP         *string   `gorm:"size:45" json:"source_ip,omitempty"`
	ResolvedRegion   *string   `gorm:"size:100" json:"resolved_region,omitempty"`
	DistanceKm       *float64  `gorm:"type:numeric(10,3)" json:"distance_km,omitempty"`
	LocationMismatch bool      `gorm:"not null" json:"location_mismatch"`
	Offline          bool      `gorm:"not null" json:"offline"`
	CreatedAt        time.Time `json:"created_at"`
}

// AddDetectionEvent is the request body a device sends when it detects something.
type AddDetectionEvent struct {
	Category   string     `json:"detection_type" example:"bear"`
	Confidence *float64   `json:"confidence" example:"0.92"`
	MediaRef   *string    `json:"media_ref"`
	Timestamp  *time.Time `json:"timestamp"`
}

// AddDetectionEventResponse is returned after an event is recorded.
type AddDetectionEventResponse struct {
	EventID          int64 `json:"event_id"`
	LocationMismatch bool  `json:"location_mismatch"`
}

// OfflineEvent is one event buffered on the device while it had no connectivity.
type OfflineEvent struct {
	Category   string    `json:"detection_type" example:"bear"`
	Confidence *float64  `json:"confidence" example:"0.81"`
	Timestamp  time.Time `json:"timestamp"`
	MediaRef   *string   `json:"media_ref"`
}

// UploadLogs is the request body of an offline log upload.
type UploadLogs struct {
	Events []OfflineEvent `json:"events"`
}

// UploadLogsResponse is returned after an offline log upload.
type UploadLogsResponse struct {
	Inserted int    `json:"inserted"`
	Message  string `json:"message"`
}

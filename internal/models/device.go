package models

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database/datatype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

type DeviceStatus string

const (
	DeviceStatusActive    DeviceStatus = "active"
	DeviceStatusSuspended DeviceStatus = "suspended"
)

func (s DeviceStatus) Valid() bool {
	return s == DeviceStatusActive || s == DeviceStatusSuspended
}

type DevicePlan string

const (
	DevicePlanStandard DevicePlan = "standard"
	DevicePlanPremium  DevicePlan = "premium"
)

func (p DevicePlan) Valid() bool {
	return p == DevicePlanStandard || p == DevicePlanPremium
}

// DetectionTargets is the set of categories a device can be configured to alert on.
var DetectionTargets = map[string]struct{}{
	"bear":    {},
	"human":   {},
	"vehicle": {},
	"unknown": {},
}

// Device is a physical sensing unit.
type Device struct {
	DeviceID           string               `gorm:"primaryKey;size:30" json:"device_id" example:"LJ-A3F8B2C1-7294"`
	OwnerID            *uuid.UUID           `gorm:"type:uuid;index" json:"owner_id,omitempty" example:"694aa002-5d19-495e-980b-3d8fd508ea10"`
	ClaimDigest        string               `gorm:"size:64;not null" json:"-"`
	AccessToken        *string              `gorm:"size:64" json:"-"`
	Status             DeviceStatus         `gorm:"size:20;not null" json:"status" example:"active"`
	Plan               DevicePlan           `gorm:"size:20;not null" json:"plan" example:"standard"`
	NotificationTarget NotificationTarget   `json:"notification_target"`
	DetectionTargets   datatype.StringArray `json:"detection_targets" example:"bear,human"`
	LastSeenAt         *time.Time           `json:"last_seen_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"-"`
}

// Alerts reports whether an event of the given category should be notified
// to the owner. A device without configured targets alerts on everything.
func (d *Device) Alerts(category string) bool {
	if len(d.DetectionTargets) == 0 {
		return true
	}
	for _, t := range d.DetectionTargets {
		if t == category {
			return true
		}
	}
	return false
}

// NotificationTarget holds where the owner of a device wants alerts delivered.
type NotificationTarget struct {
	LineToken string `json:"line_token,omitempty"`
	Email     string `json:"email,omitempty"`
}

func (n NotificationTarget) IsZero() bool {
	return n.LineToken == "" && n.Email == ""
}

// Validate checks the target is well-formed. It does not check the target is reachable.
func (n NotificationTarget) Validate() error {
	if n.Email != "" {
		addr, err := mail.ParseAddress(n.Email)
		if err != nil || addr.Address != n.Email {
			return fmt.Errorf("invalid email address: %q", n.Email)
		}
	}
	return nil
}

func (NotificationTarget) GormDataType() string {
	return "json"
}

func (NotificationTarget) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return "JSON"
}

func (n NotificationTarget) Value() (driver.Value, error) {
	data, err := json.Marshal(n)
	return string(data), err
}

func (n NotificationTarget) GormValue(ctx context.Context, db *gorm.DB) clause.Expr {
	data, err := json.Marshal(n)
	if err != nil {
		db.Error = err
	}
	return gorm.Expr("?", string(data))
}

func (n *NotificationTarget) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*n = NotificationTarget{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal notification target value: %v", value)
	}
	if len(data) == 0 {
		*n = NotificationTarget{}
		return nil
	}
	return json.Unmarshal(data, n)
}

// ClaimDeviceResponse is returned when an owner claims a device.
type ClaimDeviceResponse struct {
	DeviceID    string `json:"device_id" example:"LJ-A3F8B2C1-7294"`
	AccessToken string `json:"api_token"`
	Message     string `json:"message"`
}

// DeviceSetup is the request body used to configure alerting on a device.
type DeviceSetup struct {
	NotificationTarget *NotificationTarget `json:"notification_target"`
	DetectionTargets   []string            `json:"detection_targets" example:"bear,human,vehicle"`
}

// UpdateDevice is the request body used to update the status or plan of a device.
type UpdateDevice struct {
	Status *DeviceStatus `json:"status" example:"suspended"`
	Plan   *DevicePlan   `json:"plan" example:"premium"`
}

// DeviceStatusResponse is what a device receives when it asks for its own state.
type DeviceStatusResponse struct {
	Status         DeviceStatus    `json:"status"`
	ActiveLocation *ActiveLocation `json:"active_location"`
}

// Package registry owns the device table: identity, ownership, lifecycle
// status, plan and alerting configuration.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database/datatype"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/registry")

var (
	// ErrNotFound is returned when a device does not exist or is not
	// visible to the caller. Callers cannot tell the two apart.
	ErrNotFound = errors.New("device not found")
	// ErrInvalidConfig is returned for a status, plan or alerting
	// configuration that fails validation.
	ErrInvalidConfig = errors.New("invalid device configuration")
)

type Registry struct {
	logger *zap.SugaredLogger
	db     *gorm.DB
}

func New(logger *zap.SugaredLogger, db *gorm.DB) *Registry {
	return &Registry{
		logger: logger,
		db:     db,
	}
}

// WithTx returns a registry whose operations run inside tx.
func (r *Registry) WithTx(tx *gorm.DB) *Registry {
	return &Registry{
		logger: r.logger,
		db:     tx,
	}
}

// EnsureDevice returns the device row for deviceID, creating an unclaimed
// active device holding digest when none exists yet. The returned bool is
// true when this call created the row. An existing row is never modified.
func (r *Registry) EnsureDevice(ctx context.Context, deviceID string, digest string) (models.Device, bool, error) {
	ctx, span := tracer.Start(ctx, "EnsureDevice",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	db := r.db.WithContext(ctx)
	device := models.Device{
		DeviceID:    deviceID,
		ClaimDigest: digest,
		Status:      models.DeviceStatusActive,
		Plan:        models.DevicePlanStandard,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		DoNothing: true,
	}).Create(&device)
	if res.Error != nil {
		return models.Device{}, false, res.Error
	}
	created := res.RowsAffected == 1

	var existing models.Device
	if err := db.First(&existing, "device_id = ?", deviceID).Error; err != nil {
		return models.Device{}, false, err
	}
	if created {
		util.WithTrace(ctx, r.logger).Infow("device first seen", "device_id", deviceID)
	}
	return existing, created, nil
}

// AssignOwner sets the owner and access token of an unclaimed device. It
// reports false when the device was already claimed, which can happen when
// a concurrent claim won the race.
func (r *Registry) AssignOwner(ctx context.Context, deviceID string, owner uuid.UUID, accessToken string) (bool, error) {
	ctx, span := tracer.Start(ctx, "AssignOwner",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
			attribute.String("owner_id", owner.String()),
		))
	defer span.End()

	res := r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("device_id = ? AND owner_id IS NULL", deviceID).
		Updates(map[string]interface{}{
			"owner_id":     owner,
			"access_token": accessToken,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// GetDevice returns the device with the given id.
func (r *Registry) GetDevice(ctx context.Context, deviceID string) (models.Device, error) {
	ctx, span := tracer.Start(ctx, "GetDevice",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	var device models.Device
	if err := r.db.WithContext(ctx).First(&device, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Device{}, ErrNotFound
		}
		return models.Device{}, err
	}
	return device, nil
}

// GetOwnedDevice returns the device only when it is owned by owner.
func (r *Registry) GetOwnedDevice(ctx context.Context, deviceID string, owner uuid.UUID) (models.Device, error) {
	device, err := r.GetDevice(ctx, deviceID)
	if err != nil {
		return models.Device{}, err
	}
	if device.OwnerID == nil || *device.OwnerID != owner {
		return models.Device{}, ErrNotFound
	}
	return device, nil
}

// GetDeviceByAccessToken resolves the device a live access token belongs to.
func (r *Registry) GetDeviceByAccessToken(ctx context.Context, accessToken string) (models.Device, error) {
	ctx, span := tracer.Start(ctx, "GetDeviceByAccessToken")
	defer span.End()

	if accessToken == "" {
		return models.Device{}, ErrNotFound
	}
	var device models.Device
	if err := r.db.WithContext(ctx).First(&device, "access_token = ?", accessToken).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Device{}, ErrNotFound
		}
		return models.Device{}, err
	}
	return device, nil
}

// ListOwnedDevices returns every device claimed by owner.
func (r *Registry) ListOwnedDevices(ctx context.Context, owner uuid.UUID) ([]models.Device, error) {
	ctx, span := tracer.Start(ctx, "ListOwnedDevices")
	defer span.End()

	devices := make([]models.Device, 0)
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("created_at, device_id").
		Find(&devices).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// SetStatus changes the lifecycle status of a device owned by owner.
func (r *Registry) SetStatus(ctx context.Context, deviceID string, owner uuid.UUID, status models.DeviceStatus) (models.Device, error) {
	if !status.Valid() {
		return models.Device{}, fmt.Errorf("%w: unknown status %q", ErrInvalidConfig, status)
	}
	return r.update(ctx, "SetStatus", deviceID, owner, map[string]interface{}{
		"status": status,
	})
}

// SetPlan changes the service plan of a device owned by owner.
func (r *Registry) SetPlan(ctx context.Context, deviceID string, owner uuid.UUID, plan models.DevicePlan) (models.Device, error) {
	if !plan.Valid() {
		return models.Device{}, fmt.Errorf("%w: unknown plan %q", ErrInvalidConfig, plan)
	}
	return r.update(ctx, "SetPlan", deviceID, owner, map[string]interface{}{
		"plan": plan,
	})
}

// SetConfig replaces the alerting configuration of a device owned by owner.
// A nil target or nil targets leaves that part of the configuration as is.
func (r *Registry) SetConfig(ctx context.Context, deviceID string, owner uuid.UUID, target *models.NotificationTarget, targets []string) (models.Device, error) {
	updates := map[string]interface{}{}
	if target != nil {
		if err := target.Validate(); err != nil {
			return models.Device{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		updates["notification_target"] = *target
	}
	if targets != nil {
		if unknown := util.FilterOutAllowed(targets, models.DetectionTargets); len(unknown) > 0 {
			return models.Device{}, fmt.Errorf("%w: unknown detection targets %v", ErrInvalidConfig, unknown)
		}
		updates["detection_targets"] = datatype.StringArray(dedupe(targets))
	}
	return r.update(ctx, "SetConfig", deviceID, owner, updates)
}

// TouchLastSeen records that the device contacted the service at t.
func (r *Registry) TouchLastSeen(ctx context.Context, deviceID string, t time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("device_id = ?", deviceID).
		UpdateColumn("last_seen_at", t).Error
}

func (r *Registry) update(ctx context.Context, op string, deviceID string, owner uuid.UUID, updates map[string]interface{}) (models.Device, error) {
	ctx, span := tracer.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
			attribute.String("owner_id", owner.String()),
		))
	defer span.End()

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).
			Model(&models.Device{}).
			Where("device_id = ? AND owner_id = ?", deviceID, owner).
			Updates(updates)
		if res.Error != nil {
			return models.Device{}, res.Error
		}
		if res.RowsAffected == 0 {
			return models.Device{}, ErrNotFound
		}
		util.WithTrace(ctx, r.logger).Infow("device updated", "device_id", deviceID, "op", op)
	}
	return r.GetOwnedDevice(ctx, deviceID, owner)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

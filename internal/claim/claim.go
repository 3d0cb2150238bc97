// Package claim binds a device to its first legitimate owner.
package claim

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/devicekey"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/claim")

var (
	// ErrInvalidToken is returned when the presented digest does not match
	// the device's stored digest.
	ErrInvalidToken = errors.New("invalid claim token")
	// ErrAlreadyClaimed is returned when a different owner holds the device.
	ErrAlreadyClaimed = errors.New("device already claimed")
)

type Result struct {
	Device      models.Device
	AccessToken string
	// Created is true when the device row did not exist before this claim.
	Created bool
	// AlreadyOwned is true when the caller already owned the device and
	// nothing was changed.
	AlreadyOwned bool
}

type Coordinator struct {
	logger        *zap.SugaredLogger
	registry      *registry.Registry
	transaction   database.TransactionFunc
	ids           *devicekey.IDValidator
	factorySecret string
}

type Option func(*Coordinator)

// WithFactorySecret makes the coordinator reject digests that were not
// derived from the factory secret.
func WithFactorySecret(secret string) Option {
	return func(c *Coordinator) {
		c.factorySecret = secret
	}
}

func WithIDValidator(v *devicekey.IDValidator) Option {
	return func(c *Coordinator) {
		c.ids = v
	}
}

func NewCoordinator(logger *zap.SugaredLogger, registry *registry.Registry, transaction database.TransactionFunc, opts ...Option) (*Coordinator, error) {
	c := &Coordinator{
		logger:      logger,
		registry:    registry,
		transaction: transaction,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ids == nil {
		ids, err := devicekey.NewIDValidator(devicekey.DefaultDeviceIDPattern)
		if err != nil {
			return nil, err
		}
		c.ids = ids
	}
	return c, nil
}

// Claim binds deviceID to owner when digest matches the device's claim
// digest. A device that has never been seen is created with digest as its
// canonical digest. Claiming a device the caller already owns is a no-op
// that returns the current access token.
func (c *Coordinator) Claim(ctx context.Context, deviceID string, digest string, owner uuid.UUID) (Result, error) {
	ctx, span := tracer.Start(ctx, "Claim",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
			attribute.String("owner_id", owner.String()),
		))
	defer span.End()
	logger := util.WithTrace(ctx, c.logger)

	if err := c.ids.Validate(deviceID); err != nil {
		return Result{}, err
	}
	if digest == "" {
		return Result{}, ErrInvalidToken
	}
	if c.factorySecret != "" && !devicekey.Equal(digest, devicekey.ExpectedDigest(deviceID, c.factorySecret)) {
		logger.Infow("claim rejected, digest not derived from factory secret", "device_id", deviceID)
		return Result{}, ErrInvalidToken
	}

	var result Result
	err := util.RetryOperationForErrors(ctx, time.Millisecond*10, 3, []error{gorm.ErrDuplicatedKey}, func() error {
		result = Result{}
		return c.transaction(ctx, func(tx *gorm.DB) error {
			reg := c.registry.WithTx(tx)

			device, created, err := reg.EnsureDevice(ctx, deviceID, digest)
			if err != nil {
				if database.IsDuplicateError(err) {
					return gorm.ErrDuplicatedKey
				}
				return err
			}
			result.Created = created

			if !devicekey.Equal(digest, device.ClaimDigest) {
				return ErrInvalidToken
			}
			if device.OwnerID != nil {
				return c.owned(&result, device, owner)
			}

			token, err := devicekey.NewAccessToken()
			if err != nil {
				return err
			}
			assigned, err := reg.AssignOwner(ctx, deviceID, owner, token)
			if err != nil {
				if database.IsDuplicateError(err) {
					return gorm.ErrDuplicatedKey
				}
				return err
			}
			if !assigned {
				// a concurrent claim committed first
				device, err = reg.GetDevice(ctx, deviceID)
				if err != nil {
					return err
				}
				if device.OwnerID == nil {
					return gorm.ErrDuplicatedKey
				}
				return c.owned(&result, device, owner)
			}

			device.OwnerID = &owner
			device.AccessToken = &token
			result.Device = device
			result.AccessToken = token
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrAlreadyClaimed) {
			logger.Infow("claim rejected", "device_id", deviceID, "reason", err)
		}
		return Result{}, err
	}

	if !result.AlreadyOwned {
		logger.Infow("device claimed", "device_id", deviceID, "owner_id", owner, "created", result.Created)
	}
	return result, nil
}

func (c *Coordinator) owned(result *Result, device models.Device, owner uuid.UUID) error {
	if *device.OwnerID != owner {
		return ErrAlreadyClaimed
	}
	result.Device = device
	result.AlreadyOwned = true
	if device.AccessToken != nil {
		result.AccessToken = *device.AccessToken
	}
	return nil
}

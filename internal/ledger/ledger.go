// Package ledger keeps the placement history of devices and guarantees a
// device has at most one active location.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/geo"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/ledger")

// ErrInvalidCoordinates is returned for coordinates or a precision outside
// their domain.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// RegionClassifier attributes coordinates to an administrative region. The
// region is "" when unknown.
type RegionClassifier interface {
	Attribute(lat, lon float64) geo.Attribution
}

type Placement struct {
	DeviceID   string
	Latitude   float64
	Longitude  float64
	PrecisionM *float64
	OwnerID    uuid.UUID
	SourceIP   string
}

type PlacementResult struct {
	Record    models.LocationRecord
	Precision Precision
	Warning   string
}

type Ledger struct {
	logger      *zap.SugaredLogger
	db          *gorm.DB
	transaction database.TransactionFunc
	dialect     database.Dialect
	regions     RegionClassifier
	now         func() time.Time
}

func New(logger *zap.SugaredLogger, db *gorm.DB, transaction database.TransactionFunc, dialect database.Dialect, regions RegionClassifier) *Ledger {
	return &Ledger{
		logger:      logger,
		db:          db,
		transaction: transaction,
		dialect:     dialect,
		regions:     regions,
		now:         time.Now,
	}
}

// PlaceLocation makes the given coordinates the device's active location
// and demotes the previous one. Relocating a device is the same operation.
func (l *Ledger) PlaceLocation(ctx context.Context, p Placement) (PlacementResult, error) {
	ctx, span := tracer.Start(ctx, "PlaceLocation",
		trace.WithAttributes(
			attribute.String("device_id", p.DeviceID),
		))
	defer span.End()
	logger := util.WithTrace(ctx, l.logger)

	if err := (geo.Point{Latitude: p.Latitude, Longitude: p.Longitude}).Validate(); err != nil {
		return PlacementResult{}, fmt.Errorf("%w: %v", ErrInvalidCoordinates, err)
	}
	if p.PrecisionM != nil && (*p.PrecisionM < 0 || math.IsNaN(*p.PrecisionM) || math.IsInf(*p.PrecisionM, 0)) {
		return PlacementResult{}, fmt.Errorf("%w: precision %v must be a non negative number", ErrInvalidCoordinates, *p.PrecisionM)
	}
	precision, warning := ClassifyPrecision(p.PrecisionM)

	var record models.LocationRecord
	err := util.RetryOperationForErrors(ctx, time.Millisecond*10, 5, []error{gorm.ErrDuplicatedKey}, func() error {
		record = models.LocationRecord{
			DeviceID:   p.DeviceID,
			Latitude:   p.Latitude,
			Longitude:  p.Longitude,
			PrecisionM: storedPrecision(p.PrecisionM),
			Region:     l.region(p.Latitude, p.Longitude),
			RecordedBy: p.OwnerID,
			SourceIP:   p.SourceIP,
			RecordedAt: l.now().UTC(),
			IsActive:   true,
		}
		return l.transaction(ctx, func(tx *gorm.DB) error {
			q := tx.Select("device_id", "owner_id")
			if l.dialect != database.DialectSqlLite {
				// serializes placements of the same device
				q = q.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			var device models.Device
			if err := q.First(&device, "device_id = ?", p.DeviceID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return registry.ErrNotFound
				}
				return err
			}
			if device.OwnerID == nil || *device.OwnerID != p.OwnerID {
				return registry.ErrNotFound
			}

			if res := tx.Model(&models.LocationRecord{}).
				Where("device_id = ? AND is_active = ?", p.DeviceID, true).
				Update("is_active", false); res.Error != nil {
				return res.Error
			}
			if res := tx.Create(&record); res.Error != nil {
				if database.IsDuplicateError(res.Error) {
					return gorm.ErrDuplicatedKey
				}
				return res.Error
			}
			return nil
		})
	})
	if err != nil {
		return PlacementResult{}, err
	}

	logger.Infow("device placed",
		"device_id", p.DeviceID,
		"location_id", record.ID,
		"region", record.Region,
		"precision", precision,
	)
	return PlacementResult{
		Record:    record,
		Precision: precision,
		Warning:   warning,
	}, nil
}

// ActiveLocation returns the device's active location. The bool is false
// when the device has never been placed.
func (l *Ledger) ActiveLocation(ctx context.Context, deviceID string) (models.LocationRecord, bool, error) {
	ctx, span := tracer.Start(ctx, "ActiveLocation",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	var record models.LocationRecord
	err := l.db.WithContext(ctx).
		Where("device_id = ? AND is_active = ?", deviceID, true).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LocationRecord{}, false, nil
		}
		return models.LocationRecord{}, false, err
	}
	return record, true, nil
}

// History returns every placement of a device owned by owner, most recent first.
func (l *Ledger) History(ctx context.Context, deviceID string, owner uuid.UUID) ([]models.LocationRecord, error) {
	ctx, span := tracer.Start(ctx, "History",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	db := l.db.WithContext(ctx)
	var device models.Device
	if err := db.Select("device_id", "owner_id").First(&device, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, registry.ErrNotFound
		}
		return nil, err
	}
	if device.OwnerID == nil || *device.OwnerID != owner {
		return nil, registry.ErrNotFound
	}

	records := make([]models.LocationRecord, 0)
	if err := db.Where("device_id = ?", deviceID).
		Order("recorded_at DESC, id DESC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Attribute classifies coordinates with the ledger's region classifier.
func (l *Ledger) Attribute(lat, lon float64) geo.Attribution {
	if l.regions == nil {
		return geo.Attribution{}
	}
	return l.regions.Attribute(lat, lon)
}

func (l *Ledger) region(lat, lon float64) string {
	return l.Attribute(lat, lon).Region
}

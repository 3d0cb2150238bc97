// Package classifier ingests detection events and flags the ones whose
// network origin is inconsistent with the device's registered location.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/geo"
	"github.com/leonardo-io/leonardo/internal/geoip"
	"github.com/leonardo-io/leonardo/internal/ledger"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/notify"
	"github.com/leonardo-io/leonardo/internal/registry"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/classifier")

var (
	// ErrDeviceSuspended is returned when a suspended device reports. Nothing is stored.
	ErrDeviceSuspended = errors.New("device suspended")
	ErrInvalidEvent    = errors.New("invalid event")
)

const (
	DefaultMismatchThresholdKm = 150.0
	DefaultLookupTimeout       = 5 * time.Second
	DefaultPageSize            = 100
	MaxPageSize                = 500
	emitTimeout                = 10 * time.Second
)

// Emitter records a notification intent.
type Emitter interface {
	Emit(ctx context.Context, intent notify.Intent) error
}

type Options struct {
	// ThresholdKm is the distance at or beyond which an event is flagged.
	ThresholdKm   float64
	LookupTimeout time.Duration
	// DetectionAlerts and MismatchAlerts gate notification intents, nil means enabled.
	DetectionAlerts func() bool
	MismatchAlerts  func() bool
}

type Event struct {
	DeviceID   string
	Category   string
	Confidence float64
	SourceIP   string
	DetectedAt time.Time
	MediaRef   *string
}

type Result struct {
	EventID          int64
	LocationMismatch bool
	DistanceKm       *float64
	Region           string
}

type Classifier struct {
	logger      *zap.SugaredLogger
	db          *gorm.DB
	transaction database.TransactionFunc
	registry    *registry.Registry
	ledger      *ledger.Ledger
	locator     geoip.Provider
	emitter     Emitter
	opts        Options
	emits       sync.WaitGroup
	now         func() time.Time
}

func New(
	logger *zap.SugaredLogger,
	db *gorm.DB,
	transaction database.TransactionFunc,
	registry *registry.Registry,
	ledger *ledger.Ledger,
	locator geoip.Provider,
	emitter Emitter,
	opts Options,
) *Classifier {
	if opts.ThresholdKm <= 0 {
		opts.ThresholdKm = DefaultMismatchThresholdKm
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = DefaultLookupTimeout
	}
	return &Classifier{
		logger:      logger,
		db:          db,
		transaction: transaction,
		registry:    registry,
		ledger:      ledger,
		locator:     locator,
		emitter:     emitter,
		opts:        opts,
		now:         time.Now,
	}
}

// RecordEvent validates and stores a detection event reported by a device,
// classifying it against the device's active location. A failed or slow
// geolocation lookup never fails the event, it is stored unflagged.
func (c *Classifier) RecordEvent(ctx context.Context, e Event) (Result, error) {
	ctx, span := tracer.Start(ctx, "RecordEvent",
		trace.WithAttributes(
			attribute.String("device_id", e.DeviceID),
			attribute.String("category", e.Category),
		))
	defer span.End()
	logger := util.WithTrace(ctx, c.logger)

	if err := validate(e.Category, e.Confidence); err != nil {
		return Result{}, err
	}
	device, err := c.registry.GetDevice(ctx, e.DeviceID)
	if err != nil {
		return Result{}, err
	}
	if device.Status == models.DeviceStatusSuspended {
		return Result{}, ErrDeviceSuspended
	}

	active, placed, err := c.ledger.ActiveLocation(ctx, e.DeviceID)
	if err != nil {
		return Result{}, err
	}
	var activeLocation *models.LocationRecord
	if placed {
		activeLocation = &active
	}
	assessment := c.assess(ctx, activeLocation, e.SourceIP)

	detectedAt := e.DetectedAt
	if detectedAt.IsZero() {
		detectedAt = c.now()
	}
	event := models.DetectionEvent{
		DeviceID:         e.DeviceID,
		DetectedAt:       detectedAt.UTC(),
		Category:         e.Category,
		Confidence:       e.Confidence,
		MediaRef:         e.MediaRef,
		DistanceKm:       assessment.distanceKm,
		LocationMismatch: assessment.mismatch,
	}
	if e.SourceIP != "" {
		event.SourceIP = util.PtrString(e.SourceIP)
	}
	if assessment.region != "" {
		event.ResolvedRegion = util.PtrString(assessment.region)
	}

	err = c.transaction(ctx, func(tx *gorm.DB) error {
		// the status gate is repeated next to the insert, the device may
		// have been suspended during the lookup
		if err := ensureActive(tx, e.DeviceID); err != nil {
			return err
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return Result{}, err
	}
	span.SetAttributes(attribute.Bool("location_mismatch", event.LocationMismatch))

	if event.LocationMismatch {
		logger.Warnw("location mismatch",
			"device_id", e.DeviceID,
			"event_id", event.ID,
			"distance_km", assessment.distanceKm,
			"region", assessment.region,
			"expected_region", assessment.expectedRegion,
		)
	}
	c.emit(ctx, device, event)

	return Result{
		EventID:          event.ID,
		LocationMismatch: event.LocationMismatch,
		DistanceKm:       event.DistanceKm,
		Region:           assessment.region,
	}, nil
}

type assessment struct {
	mismatch       bool
	distanceKm     *float64
	region         string
	expectedRegion string
}

func (c *Classifier) assess(ctx context.Context, active *models.LocationRecord, sourceIP string) assessment {
	var a assessment
	if c.locator == nil {
		return a
	}
	lookupCtx, cancel := context.WithTimeout(ctx, c.opts.LookupTimeout)
	defer cancel()
	approx, err := c.locator.Lookup(lookupCtx, sourceIP)
	if err != nil {
		if !errors.Is(err, geoip.ErrUnavailable) {
			util.WithTrace(ctx, c.logger).Infow("geolocation lookup failed", "ip", sourceIP, "error", err)
		}
		return a
	}

	observed := c.ledger.Attribute(approx.Latitude, approx.Longitude)
	a.region = observed.Region
	if a.region == "" {
		a.region = approx.Region
	}
	if active == nil {
		return a
	}

	distance := geo.RoundKm(geo.Haversine(
		geo.Point{Latitude: active.Latitude, Longitude: active.Longitude},
		geo.Point{Latitude: approx.Latitude, Longitude: approx.Longitude},
	))
	a.distanceKm = &distance

	expected := c.ledger.Attribute(active.Latitude, active.Longitude)
	a.expectedRegion = active.Region
	if a.expectedRegion == "" {
		a.expectedRegion = expected.Region
	}
	// near a border the nearest capital may name the neighbour, so the
	// regions are only compared when neither side is ambiguous
	unambiguous := !observed.Ambiguous && !expected.Ambiguous
	regionDiffers := unambiguous && a.region != "" && a.expectedRegion != "" && a.region != a.expectedRegion
	a.mismatch = distance >= c.opts.ThresholdKm || regionDiffers
	return a
}

// emit writes notification intents in the background. Failures are logged only.
func (c *Classifier) emit(ctx context.Context, device models.Device, event models.DetectionEvent) {
	if c.emitter == nil || device.NotificationTarget.IsZero() {
		return
	}
	var intents []notify.Intent
	if event.LocationMismatch && enabled(c.opts.MismatchAlerts) {
		intents = append(intents, notify.Intent{
			DeviceID: event.DeviceID,
			EventID:  event.ID,
			Kind:     models.NotificationKindLocationMismatch,
			Payload: notify.MismatchPayload{
				DeviceID:   event.DeviceID,
				Region:     util.DerefString(event.ResolvedRegion),
				DistanceKm: event.DistanceKm,
			},
		})
	}
	if !event.Offline && device.Alerts(event.Category) && enabled(c.opts.DetectionAlerts) {
		intents = append(intents, notify.Intent{
			DeviceID: event.DeviceID,
			EventID:  event.ID,
			Kind:     models.NotificationKindDetection,
			Payload: notify.DetectionPayload{
				DeviceID:   event.DeviceID,
				Category:   event.Category,
				Confidence: event.Confidence,
			},
		})
	}
	if len(intents) == 0 {
		return
	}

	logger := util.WithTrace(ctx, c.logger)
	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	util.GoWithWaitGroup(&c.emits, func() {
		defer cancel()
		for _, intent := range intents {
			if err := c.emitter.Emit(emitCtx, intent); err != nil {
				logger.Warnw("failed to emit notification", "event_id", intent.EventID, "kind", intent.Kind, "error", err)
			}
		}
	})
}

// Wait blocks until background notification emits have finished.
func (c *Classifier) Wait() {
	c.emits.Wait()
}

// UploadOfflineEvents stores events a device buffered while it had no
// connectivity. They are not geolocated and never flagged.
func (c *Classifier) UploadOfflineEvents(ctx context.Context, deviceID string, events []Event) (int, error) {
	ctx, span := tracer.Start(ctx, "UploadOfflineEvents",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
			attribute.Int("count", len(events)),
		))
	defer span.End()

	if len(events) == 0 {
		return 0, fmt.Errorf("%w: no events", ErrInvalidEvent)
	}
	rows := make([]models.DetectionEvent, 0, len(events))
	for i, e := range events {
		if err := validate(e.Category, e.Confidence); err != nil {
			return 0, fmt.Errorf("event %d: %w", i, err)
		}
		if e.DetectedAt.IsZero() {
			return 0, fmt.Errorf("%w: event %d has no timestamp", ErrInvalidEvent, i)
		}
		rows = append(rows, models.DetectionEvent{
			DeviceID:   deviceID,
			DetectedAt: e.DetectedAt.UTC(),
			Category:   e.Category,
			Confidence: e.Confidence,
			MediaRef:   e.MediaRef,
			Offline:    true,
		})
	}

	err := c.transaction(ctx, func(tx *gorm.DB) error {
		if err := ensureActive(tx, deviceID); err != nil {
			return err
		}
		return tx.CreateInBatches(&rows, 100).Error
	})
	if err != nil {
		return 0, err
	}
	util.WithTrace(ctx, c.logger).Infow("offline events uploaded", "device_id", deviceID, "count", len(rows))
	return len(rows), nil
}

// ListEvents pages through the event log of a device owned by owner, most recent first.
func (c *Classifier) ListEvents(ctx context.Context, deviceID string, owner uuid.UUID, limit int, offset int) ([]models.DetectionEvent, error) {
	ctx, span := tracer.Start(ctx, "ListEvents",
		trace.WithAttributes(
			attribute.String("device_id", deviceID),
		))
	defer span.End()

	if _, err := c.registry.GetOwnedDevice(ctx, deviceID, owner); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	events := make([]models.DetectionEvent, 0)
	if err := c.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		Order("detected_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func ensureActive(tx *gorm.DB, deviceID string) error {
	var device models.Device
	if err := tx.Select("device_id", "status").First(&device, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return registry.ErrNotFound
		}
		return err
	}
	if device.Status == models.DeviceStatusSuspended {
		return ErrDeviceSuspended
	}
	return nil
}

func validate(category string, confidence float64) error {
	if category == "" {
		return fmt.Errorf("%w: detection type is required", ErrInvalidEvent)
	}
	if len(category) > 20 {
		return fmt.Errorf("%w: detection type is too long", ErrInvalidEvent)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: confidence %v must be within [0, 1]", ErrInvalidEvent, confidence)
	}
	return nil
}

func enabled(flag func() bool) bool {
	return flag == nil || flag()
}

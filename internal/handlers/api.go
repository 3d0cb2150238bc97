package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/claim"
	"github.com/leonardo-io/leonardo/internal/classifier"
	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/devicekey"
	"github.com/leonardo-io/leonardo/internal/fflags"
	"github.com/leonardo-io/leonardo/internal/geoip"
	"github.com/leonardo-io/leonardo/internal/ledger"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
	"github.com/leonardo-io/leonardo/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/leonardo-io/leonardo/internal/handlers")
}

const (
	FlagDetectionAlerts = "detection-alerts"
	FlagMismatchAlerts  = "mismatch-alerts"
	FlagOfflineUpload   = "offline-upload"
	// FlagMqttIngest is registered by the server, it is on when a broker is configured.
	FlagMqttIngest = "mqtt-ingest"
)

// Options carries the collaborators and tunables of the API.
type Options struct {
	FactorySecret   string
	DeviceIDPattern string
	// Regions maps coordinates to a region name; nil disables region comparison.
	Regions       ledger.RegionClassifier
	Locator       geoip.Provider
	Emitter       classifier.Emitter
	ThresholdKm   float64
	LookupTimeout time.Duration
}

type API struct {
	logger      *zap.SugaredLogger
	db          *gorm.DB
	fflags      *fflags.FFlags
	transaction database.TransactionFunc
	dialect     database.Dialect
	registry    *registry.Registry
	claims      *claim.Coordinator
	ledger      *ledger.Ledger
	classifier  *classifier.Classifier
}

func NewAPI(
	parent context.Context,
	logger *zap.SugaredLogger,
	db *gorm.DB,
	fflags *fflags.FFlags,
	opts Options,
) (*API, error) {

	fflags.RegisterEnvFlag(FlagDetectionAlerts, "LEOAPI_FFLAG_DETECTION_ALERTS", true)
	fflags.RegisterEnvFlag(FlagMismatchAlerts, "LEOAPI_FFLAG_MISMATCH_ALERTS", true)
	fflags.RegisterEnvFlag(FlagOfflineUpload, "LEOAPI_FFLAG_OFFLINE_UPLOAD", true)

	_, span := tracer.Start(parent, "NewAPI")
	defer span.End()

	transactionFunc, dialect, err := database.GetTransactionFunc(db)
	if err != nil {
		return nil, err
	}

	pattern := opts.DeviceIDPattern
	if pattern == "" {
		pattern = devicekey.DefaultDeviceIDPattern
	}
	ids, err := devicekey.NewIDValidator(pattern)
	if err != nil {
		return nil, err
	}

	reg := registry.New(logger, db)
	claims, err := claim.NewCoordinator(logger, reg, transactionFunc,
		claim.WithIDValidator(ids),
		claim.WithFactorySecret(opts.FactorySecret),
	)
	if err != nil {
		return nil, err
	}

	locations := ledger.New(logger, db, transactionFunc, dialect, opts.Regions)

	locator := opts.Locator
	if locator == nil {
		locator = geoip.Static{}
	}
	events := classifier.New(logger, db, transactionFunc, reg, locations, locator, opts.Emitter, classifier.Options{
		ThresholdKm:     opts.ThresholdKm,
		LookupTimeout:   opts.LookupTimeout,
		DetectionAlerts: func() bool { return fflags.Enabled(FlagDetectionAlerts) },
		MismatchAlerts:  func() bool { return fflags.Enabled(FlagMismatchAlerts) },
	})

	return &API{
		logger:      logger,
		db:          db,
		fflags:      fflags,
		transaction: transactionFunc,
		dialect:     dialect,
		registry:    reg,
		claims:      claims,
		ledger:      locations,
		classifier:  events,
	}, nil
}

func (api *API) Logger(ctx context.Context) *zap.SugaredLogger {
	return util.WithTrace(ctx, api.logger)
}

// Registry is shared with transports that authenticate devices outside gin.
func (api *API) Registry() *registry.Registry {
	return api.registry
}

func (api *API) Classifier() *classifier.Classifier {
	return api.classifier
}

func (api *API) SendInternalServerError(c *gin.Context, err error) {
	SendInternalServerError(c, api.logger, err)
}

func SendInternalServerError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	ctx := c.Request.Context()
	util.WithTrace(ctx, logger).Errorw("internal server error", "error", err)

	result := models.InternalServerError{
		BaseError: models.BaseError{
			Error: "internal server error",
		},
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		result.TraceId = sc.TraceID().String()
	}
	c.JSON(http.StatusInternalServerError, result)
}

func (api *API) GetCurrentUserID(c *gin.Context) uuid.UUID {
	userId, found := c.Get(gin.AuthUserKey)
	if !found {
		api.SendInternalServerError(c, fmt.Errorf("no current user found"))
		panic("no current user found")
	}
	return userId.(uuid.UUID)
}

func (api *API) FlagCheck(c *gin.Context, name string) bool {
	enabled, err := api.fflags.GetFlag(name)
	if err != nil {
		api.SendInternalServerError(c, err)
		return false
	}
	if !enabled {
		c.JSON(http.StatusMethodNotAllowed, models.NewNotAllowedError(fmt.Sprintf("%s support is disabled", name)))
		return false
	}
	return enabled
}

// Wait blocks until background work started by requests has finished.
func (api *API) Wait() {
	api.classifier.Wait()
}

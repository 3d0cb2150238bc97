package routers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/leonardo-io/leonardo/internal/docs"
	"github.com/leonardo-io/leonardo/internal/handlers"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const name = "github.com/leonardo-io/leonardo/internal/routers"

type APIRouterOptions struct {
	Logger    *zap.SugaredLogger
	Api       *handlers.API
	JWTSecret string
	JWTIssuer string
	// Origins allowed to call the API from a browser, none disables CORS.
	Origins []string
	// MaxDeviceRequests caps concurrent device requests, 0 is unlimited.
	MaxDeviceRequests int
	// Metrics registers the prometheus /metrics endpoint.
	Metrics bool
}

func NewAPIRouter(ctx context.Context, o APIRouterOptions) (*gin.Engine, error) {
	if o.JWTSecret == "" {
		return nil, errors.New("a jwt secret is required")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	loggerMiddleware := ginzap.GinzapWithConfig(o.Logger.Desugar(), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{
				zap.String("traceID", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
			}
		},
	})

	r.Use(otelgin.Middleware(name, otelgin.WithPropagators(
		propagation.TraceContext{},
	)))
	r.Use(ginzap.RecoveryWithZap(o.Logger.Desugar(), true))

	if o.Metrics {
		newPrometheus().Use(r)
	}

	if len(o.Origins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = o.Origins
		config.AllowHeaders = append(config.AllowHeaders, "Authorization", handlers.DeviceTokenHeader)
		config.ExposeHeaders = []string{handlers.TotalCountHeader}
		r.Use(cors.New(config))
	}

	api := o.Api

	r.GET("/openapi/*any", ginSwagger.WrapHandler(swaggerFiles.Handler), loggerMiddleware)

	private := r.Group("/api/v1", loggerMiddleware)
	{
		private.Use(ValidateJWT(o.Logger, []byte(o.JWTSecret), o.JWTIssuer))
		private.Use(api.UserMiddleware())

		// Feature Flags
		private.GET("/fflags", api.ListFeatureFlags)
		private.GET("/fflags/:name", api.GetFeatureFlag)

		// Devices
		private.GET("/devices", api.ListDevices)
		private.GET("/devices/:id", api.GetDevice)
		private.PATCH("/devices/:id", api.UpdateDevice)
		private.POST("/devices/:id/register", api.ClaimDevice)
		private.PUT("/devices/:id/setup", api.SetupDevice)

		// Locations
		private.POST("/devices/:id/location", api.AddLocation)
		private.POST("/devices/:id/relocate", api.RelocateDevice)
		private.GET("/devices/:id/locations", api.ListLocations)

		// Events
		private.GET("/devices/:id/events", api.ListEvents)
	}

	// Routes called by the devices themselves
	device := r.Group("/api/v1/devices/:id", loggerMiddleware)
	{
		device.Use(api.DeviceTokenAuth())
		device.Use(ConcurrencyLimit(o.MaxDeviceRequests))
		device.POST("/event", api.RecordEvent)
		device.GET("/status", api.DeviceStatus)
		device.POST("/upload-logs", api.UploadLogs)
	}

	// Don't log the health/readiness checks.
	r.GET("/ready", api.Ready)
	r.GET("/live", api.Live)

	return r, nil
}

func newPrometheus() *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus("apiserver")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := c.Request.URL.Path
		for _, p := range c.Params {
			if p.Key == "id" {
				url = strings.Replace(url, p.Value, ":id", 1)
				break
			}
		}
		return url
	}
	return p
}

package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/email"
	"github.com/leonardo-io/leonardo/internal/fflags"
	"github.com/leonardo-io/leonardo/internal/geo"
	"github.com/leonardo-io/leonardo/internal/geoip"
	"github.com/leonardo-io/leonardo/internal/handlers"
	"github.com/leonardo-io/leonardo/internal/mqttingest"
	"github.com/leonardo-io/leonardo/internal/notify"
	"github.com/leonardo-io/leonardo/internal/routers"
	"github.com/leonardo-io/leonardo/internal/signalbus"
	"github.com/leonardo-io/leonardo/internal/util"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.18.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"

	"github.com/urfave/cli/v3"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("apiserver")
}

//go:generate swag init --dir ../.. --generalInfo cmd/apiserver/main.go --output ../../internal/docs --outputTypes go

// @title          Leonardo API
// @description    Device claim, placement and detection API of the Leonardo wildlife cameras.
// @version        1.0
// @contact.name   The Leonardo Authors
// @BasePath       /
func main() {
	// Override to capitalize "Show"
	cli.HelpFlag.(*cli.BoolFlag).Usage = "Show help"
	app := &cli.Command{
		Name: "apiserver",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Value:   false,
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("LEOAPI_DEBUG"),
			},
			&cli.StringFlag{
				Name:    "listen",
				Value:   "0.0.0.0:8080",
				Usage:   "The address and port to listen for HTTP requests on",
				Sources: cli.EnvVars("LEOAPI_LISTEN"),
			},
			&cli.BoolFlag{
				Name:    "metrics",
				Value:   true,
				Usage:   "Serve prometheus metrics on /metrics",
				Sources: cli.EnvVars("LEOAPI_METRICS"),
			},
			&cli.StringFlag{
				Name:    "db-host",
				Value:   "apiserver-db",
				Usage:   "Database host name",
				Sources: cli.EnvVars("LEOAPI_DB_HOST"),
			},
			&cli.StringFlag{
				Name:    "db-port",
				Value:   "5432",
				Usage:   "Database port",
				Sources: cli.EnvVars("LEOAPI_DB_PORT"),
			},
			&cli.StringFlag{
				Name:    "db-user",
				Value:   "apiserver",
				Usage:   "Database user",
				Sources: cli.EnvVars("LEOAPI_DB_USER"),
			},
			&cli.StringFlag{
				Name:    "db-password",
				Value:   "secret",
				Usage:   "Database password",
				Sources: cli.EnvVars("LEOAPI_DB_PASSWORD"),
			},
			&cli.StringFlag{
				Name:    "db-name",
				Value:   "apiserver",
				Usage:   "Database name",
				Sources: cli.EnvVars("LEOAPI_DB_NAME"),
			},
			&cli.StringFlag{
				Name:    "db-sslmode",
				Value:   "disable",
				Usage:   "Database ssl mode",
				Sources: cli.EnvVars("LEOAPI_DB_SSLMODE"),
			},
			&cli.StringFlag{
				Name:    "redis-server",
				Usage:   "Redis host:port address used to share geolocation results, empty caches in memory",
				Sources: cli.EnvVars("LEOAPI_REDIS_SERVER"),
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database to be selected after connecting to the server.",
				Value:   1,
				Sources: cli.EnvVars("LEOAPI_REDIS_DB"),
			},
			&cli.StringFlag{
				Name:     "jwt-secret",
				Usage:    "HMAC secret the owner access tokens are signed with",
				Required: true,
				Sources:  cli.EnvVars("LEOAPI_JWT_SECRET"),
			},
			&cli.StringFlag{
				Name:    "jwt-issuer",
				Usage:   "Expected issuer of owner access tokens, empty accepts any",
				Sources: cli.EnvVars("LEOAPI_JWT_ISSUER"),
			},
			&cli.StringSliceFlag{
				Name:    "origins",
				Usage:   "Origins allowed to call the API from a browser",
				Sources: cli.EnvVars("LEOAPI_ORIGINS"),
			},
			&cli.StringFlag{
				Name:    "factory-secret",
				Usage:   "Secret factory tokens are derived from, empty trusts the first registration",
				Sources: cli.EnvVars("LEOAPI_FACTORY_SECRET"),
			},
			&cli.StringFlag{
				Name:    "device-id-pattern",
				Usage:   "Regular expression device ids must match",
				Value:   `^[A-Za-z0-9][A-Za-z0-9-]{2,29}$`,
				Sources: cli.EnvVars("LEOAPI_DEVICE_ID_PATTERN"),
			},
			&cli.IntFlag{
				Name:    "max-device-requests",
				Usage:   "Maximum number of device requests handled at once, 0 is unlimited",
				Value:   64,
				Sources: cli.EnvVars("LEOAPI_MAX_DEVICE_REQUESTS"),
			},
			&cli.FloatFlag{
				Name:    "mismatch-threshold-km",
				Usage:   "Distance from the active location at which an event is flagged",
				Value:   150,
				Sources: cli.EnvVars("LEOAPI_MISMATCH_THRESHOLD_KM"),
			},
			&cli.StringFlag{
				Name:    "regions-file",
				Usage:   "YAML file of region centroids, empty uses the built-in Japanese prefectures",
				Sources: cli.EnvVars("LEOAPI_REGIONS_FILE"),
			},
			&cli.BoolFlag{
				Name:    "geoip-disabled",
				Usage:   "Never geolocate device addresses",
				Sources: cli.EnvVars("LEOAPI_GEOIP_DISABLED"),
			},
			&cli.StringFlag{
				Name:    "geoip-url",
				Usage:   "ip-api compatible geolocation endpoint",
				Value:   geoip.DefaultURL,
				Sources: cli.EnvVars("LEOAPI_GEOIP_URL"),
			},
			&cli.DurationFlag{
				Name:    "geoip-timeout",
				Usage:   "Geolocation lookups taking longer are treated as unavailable",
				Value:   geoip.DefaultTimeout,
				Sources: cli.EnvVars("LEOAPI_GEOIP_TIMEOUT"),
			},
			&cli.IntFlag{
				Name:    "geoip-requests-per-minute",
				Usage:   "Outbound geolocation request budget",
				Value:   geoip.DefaultRequestsPerMinute,
				Sources: cli.EnvVars("LEOAPI_GEOIP_REQUESTS_PER_MINUTE"),
			},
			&cli.DurationFlag{
				Name:    "geoip-cache-ttl",
				Usage:   "How long geolocation results are cached",
				Value:   geoip.DefaultCacheTTL,
				Sources: cli.EnvVars("LEOAPI_GEOIP_CACHE_TTL"),
			},
			&cli.StringFlag{
				Name:    "smtp-host-port",
				Usage:   "SMTP server host:port address",
				Sources: cli.EnvVars("LEOAPI_SMTP_HOST_PORT"),
			},
			&cli.StringFlag{
				Name:    "smtp-user",
				Usage:   "SMTP server user name",
				Sources: cli.EnvVars("LEOAPI_SMTP_USER"),
			},
			&cli.StringFlag{
				Name:    "smtp-password",
				Usage:   "SMTP server password",
				Sources: cli.EnvVars("LEOAPI_SMTP_PASSWORD"),
			},
			&cli.BoolFlag{
				Name:    "smtp-tls",
				Usage:   "Use TLS to connect to the SMTP server",
				Sources: cli.EnvVars("LEOAPI_SMTP_TLS"),
			},
			&cli.BoolFlag{
				Name:    "smtp-starttls",
				Usage:   "Upgrade the SMTP connection with STARTTLS instead of dialing TLS",
				Sources: cli.EnvVars("LEOAPI_SMTP_STARTTLS"),
			},
			&cli.BoolFlag{
				Name:    "insecure-tls",
				Value:   false,
				Usage:   "Trust any TLS certificate",
				Sources: cli.EnvVars("LEOAPI_INSECURE_TLS"),
			},
			&cli.StringFlag{
				Name:    "smtp-from",
				Usage:   "The from address to use for emails",
				Sources: cli.EnvVars("LEOAPI_SMTP_FROM"),
			},
			&cli.StringFlag{
				Name:    "line-notify-url",
				Usage:   "LINE Notify endpoint",
				Value:   notify.DefaultLineNotifyURL,
				Sources: cli.EnvVars("LEOAPI_LINE_NOTIFY_URL"),
			},
			&cli.DurationFlag{
				Name:    "notify-interval",
				Usage:   "How often pending notifications are polled for",
				Value:   notify.DefaultPollInterval,
				Sources: cli.EnvVars("LEOAPI_NOTIFY_INTERVAL"),
			},
			&cli.StringFlag{
				Name:    "mqtt-broker",
				Usage:   "MQTT broker to receive device events from, e.g. tcp://mqtt:1883",
				Sources: cli.EnvVars("LEOAPI_MQTT_BROKER"),
			},
			&cli.StringFlag{
				Name:    "mqtt-client-id",
				Usage:   "MQTT client id, must be unique per apiserver instance",
				Sources: cli.EnvVars("LEOAPI_MQTT_CLIENT_ID"),
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				Usage:   "MQTT user name",
				Sources: cli.EnvVars("LEOAPI_MQTT_USER"),
			},
			&cli.StringFlag{
				Name:    "mqtt-password",
				Usage:   "MQTT password",
				Sources: cli.EnvVars("LEOAPI_MQTT_PASSWORD"),
			},
			&cli.BoolFlag{
				Name:    "trace-insecure",
				Value:   false,
				Usage:   "Set OTLP endpoint to insecure mode",
				Sources: cli.EnvVars("LEOAPI_TRACE_INSECURE"),
			},
			&cli.StringFlag{
				Name:    "trace-endpoint",
				Value:   "",
				Usage:   "OTLP endpoint for trace data",
				Sources: cli.EnvVars("LEOAPI_TRACE_ENDPOINT_OTLP"),
			},
		},

		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, _ = signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
			ctx, span := tracer.Start(ctx, "Run")
			defer span.End()
			withLoggerAndDB(ctx, command, func(logger *zap.Logger, db *gorm.DB, dsn string) {
				pprof_init(ctx, command, logger)
				sugar := logger.Sugar()

				if err := database.Migrations().Migrate(ctx, db); err != nil {
					log.Fatal(err)
				}

				signalBus := signalbus.NewPgSignalBus(signalbus.NewSignalBus(), db, dsn, sugar)
				wg := &sync.WaitGroup{}
				signalBus.Start(ctx, wg)

				fflags := fflags.NewFFlags(sugar)
				fflags.RegisterFlag(handlers.FlagMqttIngest, func() bool {
					return command.String("mqtt-broker") != ""
				})

				regions, err := geo.LoadGazetteer(command.String("regions-file"))
				if err != nil {
					log.Fatal(err)
				}

				locator := newLocator(ctx, command, sugar, wg)
				outbox := notify.NewOutbox(sugar, db, signalBus)

				api, err := handlers.NewAPI(ctx, sugar, db, fflags, handlers.Options{
					FactorySecret:   command.String("factory-secret"),
					DeviceIDPattern: command.String("device-id-pattern"),
					Regions:         regions,
					Locator:         locator,
					Emitter:         outbox,
					ThresholdKm:     command.Float("mismatch-threshold-km"),
					LookupTimeout:   command.Duration("geoip-timeout"),
				})
				if err != nil {
					log.Fatal(err)
				}

				senders := []notify.Sender{notify.NewLineSender(command.String("line-notify-url"))}
				smtpServer := email.SmtpServer{
					HostPort: command.String("smtp-host-port"),
					User:     command.String("smtp-user"),
					Password: command.String("smtp-password"),
					StartTLS: command.Bool("smtp-starttls"),
				}
				if command.Bool("smtp-tls") || command.Bool("smtp-starttls") { // #nosec G402
					smtpServer.Tls = &tls.Config{
						InsecureSkipVerify: command.Bool("insecure-tls"),
					}
				}
				if smtpServer.Configured() {
					senders = append(senders, &notify.EmailSender{
						Server: smtpServer,
						From:   command.String("smtp-from"),
					})
				}
				worker := notify.NewWorker(sugar, db, signalBus, command.Duration("notify-interval"), senders...)
				worker.Start(ctx, wg)

				if broker := command.String("mqtt-broker"); broker != "" {
					subscriber := mqttingest.NewSubscriber(sugar, mqttingest.Options{
						Broker:   broker,
						ClientID: command.String("mqtt-client-id"),
						Username: command.String("mqtt-user"),
						Password: command.String("mqtt-password"),
					}, api.Registry(), api.Classifier())
					if err := subscriber.Start(ctx, wg); err != nil {
						log.Fatal(err)
					}
				}

				router, err := routers.NewAPIRouter(ctx, routers.APIRouterOptions{
					Logger:            sugar,
					Api:               api,
					JWTSecret:         command.String("jwt-secret"),
					JWTIssuer:         command.String("jwt-issuer"),
					Origins:           command.StringSlice("origins"),
					MaxDeviceRequests: int(command.Int("max-device-requests")),
					Metrics:           command.Bool("metrics"),
				})
				if err != nil {
					log.Fatal(err)
				}

				httpServer := &http.Server{
					Addr:              command.String("listen"),
					Handler:           router,
					ReadTimeout:       5 * time.Second,
					ReadHeaderTimeout: 5 * time.Second,
					WriteTimeout:      30 * time.Second,
				}
				defer util.IgnoreError(httpServer.Close)

				serveErrors := make(chan error, 1)
				httpDone := &sync.WaitGroup{}
				util.GoWithWaitGroup(httpDone, func() {
					if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
						serveErrors <- err
					}
				})
				sugar.Infow("apiserver started", "listen", command.String("listen"))

				// Wait for a shutdown signal or a server error
				select {
				case err = <-serveErrors:
				case <-ctx.Done():
				}

				// Try to do a graceful shutdown of the server for 5 seconds...
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
				httpDone.Wait()

				// requests may have queued notifications
				api.Wait()

				backgroundDone := make(chan struct{})
				go func() {
					wg.Wait()
					close(backgroundDone)
				}()
				select {
				case <-backgroundDone:
				case <-shutdownCtx.Done():
					sugar.Warn("background workers did not stop in time")
				}

				if err != nil {
					log.Fatal(err)
				}
			})
			return nil
		},
	}
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "rollback",
		Usage: "Rollback the last database migration",
		Action: func(ctx context.Context, command *cli.Command) error {

			withLoggerAndDB(ctx, command, func(logger *zap.Logger, db *gorm.DB, dsn string) {
				if err := database.Migrations().RollbackLast(ctx, db); err != nil {
					log.Fatal(err)
				}
			})
			return nil
		},
	})

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

// newLocator builds the geolocation provider with a shared redis cache when
// one is configured, or an in-memory cache swept in the background.
func newLocator(ctx context.Context, command *cli.Command, logger *zap.SugaredLogger, wg *sync.WaitGroup) geoip.Provider {
	if command.Bool("geoip-disabled") {
		logger.Info("geolocation disabled, events are never flagged by address")
		return geoip.Static{}
	}

	ttl := command.Duration("geoip-cache-ttl")
	var cache geoip.Cache
	if addr := command.String("redis-server"); addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   int(command.Int("redis-db")),
		})
		util.GoWithWaitGroup(wg, func() {
			<-ctx.Done()
			util.IgnoreError(redisClient.Close)
		})
		cache = geoip.NewRedisCache(logger, redisClient, ttl, "geoip:")
	} else {
		memory := geoip.NewMemoryCache(ttl)
		util.GoWithWaitGroup(wg, func() {
			util.RunPeriodically(ctx, time.Minute, func() {
				memory.Sweep()
			})
		})
		cache = memory
	}

	return geoip.NewClient(logger, geoip.ClientOptions{
		URL:               command.String("geoip-url"),
		Timeout:           command.Duration("geoip-timeout"),
		RequestsPerMinute: int(command.Int("geoip-requests-per-minute")),
		Cache:             cache,
	})
}

func getLogger(command *cli.Command) *zap.Logger {
	var logger *zap.Logger
	var err error
	// set the log level
	if command.Bool("debug") {
		logConfig := zap.NewProductionConfig()
		logConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		logger, err = logConfig.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	return logger
}

func withLoggerAndDB(ctx context.Context, command *cli.Command, f func(logger *zap.Logger, db *gorm.DB, dsn string)) {
	logger := getLogger(command)
	cleanup := initTracer(logger.Sugar(), command.Bool("trace-insecure"), command.String("trace-endpoint"))
	defer func() {
		if cleanup == nil {
			return
		}
		if err := cleanup(ctx); err != nil {
			logger.Error(err.Error())
		}
	}()

	db, dsn, err := database.NewDatabase(
		ctx,
		logger.Sugar(),
		command.String("db-host"),
		command.String("db-user"),
		command.String("db-password"),
		command.String("db-name"),
		command.String("db-port"),
		command.String("db-sslmode"),
	)
	if err != nil {
		log.Fatal(err)
	}

	f(logger, db, dsn)
}

func initTracer(logger *zap.SugaredLogger, insecure bool, collector string) func(context.Context) error {
	if collector == "" {
		logger.Info("No collector endpoint configured")
		otel.SetTracerProvider(
			sdktrace.NewTracerProvider(
				sdktrace.WithSampler(sdktrace.AlwaysSample()),
			),
		)
		return nil
	}
	secureOption := otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, ""))
	if insecure {
		secureOption = otlptracegrpc.WithInsecure()
	}
	exporter, err := otlptrace.New(
		context.Background(),
		otlptracegrpc.NewClient(
			secureOption,
			otlptracegrpc.WithEndpoint(collector),
		),
	)
	if err != nil {
		logger.Errorf("Unable to create open telemetry exporter: %s", err.Error())
		return nil
	}
	resources, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", "apiserver"),
			attribute.String("library.language", "go"),
		),
	)
	if err != nil {
		logger.Errorf("Unable to create resources: %s", err.Error())
		return nil
	}

	deployEnvironment := os.Getenv("LEOAPI_ENVIRONMENT")
	if deployEnvironment == "" {
		deployEnvironment = "development"
	}

	otel.SetTracerProvider(
		sdktrace.NewTracerProvider(
			sdktrace.WithResource(resource.NewWithAttributes(
				semconv.SchemaURL,
				semconv.ServiceName("apiserver"),
				semconv.DeploymentEnvironment(deployEnvironment),
			)),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(resources),
		),
	)
	return exporter.Shutdown
}

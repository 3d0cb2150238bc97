package database

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewDatabase connects to PostgreSQL (or CockroachDB), retrying with an
// exponential backoff until the server accepts connections or ctx is done.
func NewDatabase(
	ctx context.Context,
	logger *zap.SugaredLogger,
	host string,
	user string,
	password string,
	dbname string,
	port string,
	sslmode string,
) (*gorm.DB, string, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode)

	var db *gorm.DB
	connectDb := func() error {
		var err error
		db, err = gorm.Open(postgres.Open(dsn), newConfig(logger))
		if err != nil {
			logger.Infow("database not ready", "host", host, "error", err)
			return err
		}
		return nil
	}
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(connectDb, bo); err != nil {
		return nil, "", err
	}
	if err := instrument(db); err != nil {
		return nil, "", err
	}
	return db, dsn, nil
}

// NewTestDatabase creates a migrated SQLite database stored under dir.
// Transactions take the write lock when they begin so concurrent writers
// queue up instead of failing.
func NewTestDatabase(ctx context.Context, logger *zap.SugaredLogger, dir string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL",
		filepath.Join(dir, "leonardo.db"))
	db, err := gorm.Open(sqlite.Open(dsn), newConfig(logger))
	if err != nil {
		return nil, err
	}
	if err := Migrations().Migrate(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func newConfig(logger *zap.SugaredLogger) *gorm.Config {
	return &gorm.Config{
		Logger:         NewLogger(logger),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func instrument(db *gorm.DB) error {
	return db.Use(otelgorm.NewPlugin(otelgorm.WithDBName("leonardo")))
}

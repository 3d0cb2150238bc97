//go:build integration

package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// NewPostgres starts a PostgreSQL container for the test and returns the
// migrated database with its transaction runner and dialect.
func NewPostgres(t testing.TB) (*gorm.DB, database.TransactionFunc, database.Dialect) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "leonardo",
				"POSTGRES_PASSWORD": "secret",
				"POSTGRES_DB":       "leonardo",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, _, err := database.NewDatabase(ctx, zaptest.NewLogger(t).Sugar(), host, "leonardo", "secret", "leonardo", fmt.Sprint(port.Int()), "disable")
	require.NoError(t, err)
	require.NoError(t, database.Migrations().Migrate(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	transaction, dialect, err := database.GetTransactionFunc(db)
	require.NoError(t, err)
	return db, transaction, dialect
}

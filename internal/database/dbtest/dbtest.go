// Package dbtest provides migrated throwaway databases for package tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// New returns a migrated SQLite database living in a test temp dir, along
// with the transaction runner for it.
func New(t testing.TB) (*gorm.DB, database.TransactionFunc) {
	t.Helper()
	db, err := database.NewTestDatabase(context.Background(), zaptest.NewLogger(t).Sugar(), t.TempDir())
	require.NoError(t, err)
	transaction, _, err := database.GetTransactionFunc(db)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db, transaction
}

// CreateUser inserts a new user row and returns its id.
func CreateUser(t testing.TB, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := models.User{ID: uuid.New()}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

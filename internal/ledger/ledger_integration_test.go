//go:build integration

package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/leonardo-io/leonardo/internal/database"
	"github.com/leonardo-io/leonardo/internal/database/dbtest"
	"github.com/leonardo-io/leonardo/internal/geo"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// TestPostgresConcurrentPlacements places the same device from many
// goroutines against PostgreSQL, where the transactions really overlap.
func TestPostgresConcurrentPlacements(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	db, transaction, dialect := dbtest.NewPostgres(t)
	require.Equal(database.DialectPostgreSQL, dialect)

	logger := zaptest.NewLogger(t).Sugar()
	gazetteer, err := geo.LoadGazetteer("")
	require.NoError(err)
	l := New(logger, db, transaction, dialect, gazetteer)

	owner := dbtest.CreateUser(t, db)
	reg := registry.New(logger, db)
	_, _, err = reg.EnsureDevice(ctx, "UNIT-0001", "digest")
	require.NoError(err)
	ok, err := reg.AssignOwner(ctx, "UNIT-0001", owner, "token")
	require.NoError(err)
	require.True(ok)

	const placements = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, placements)
	for i := 0; i < placements; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = l.PlaceLocation(ctx, Placement{
				DeviceID:  "UNIT-0001",
				Latitude:  35.0 + float64(i)*0.01,
				Longitude: 139.0,
				OwnerID:   owner,
			})
		}(i)
	}
	close(start)
	wg.Wait()
	for _, err := range errs {
		require.NoError(err)
	}

	var active, total int64
	require.NoError(db.Model(&models.LocationRecord{}).Where("device_id = ? AND is_active = ?", "UNIT-0001", true).Count(&active).Error)
	require.NoError(db.Model(&models.LocationRecord{}).Where("device_id = ?", "UNIT-0001").Count(&total).Error)
	require.Equal(int64(1), active)
	require.Equal(int64(placements), total)
}

package claim

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database/dbtest"
	"github.com/leonardo-io/leonardo/internal/devicekey"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/registry"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type ClaimTestSuite struct {
	suite.Suite
	db       *gorm.DB
	registry *registry.Registry
	claims   *Coordinator
	alice    uuid.UUID
	bob      uuid.UUID
}

func TestClaim(t *testing.T) {
	suite.Run(t, new(ClaimTestSuite))
}

func (s *ClaimTestSuite) SetupTest() {
	db, transaction := dbtest.New(s.T())
	logger := zaptest.NewLogger(s.T()).Sugar()
	s.db = db
	s.registry = registry.New(logger, db)
	claims, err := NewCoordinator(logger, s.registry, transaction)
	s.Require().NoError(err)
	s.claims = claims
	s.alice = dbtest.CreateUser(s.T(), db)
	s.bob = dbtest.CreateUser(s.T(), db)
}

func (s *ClaimTestSuite) TestFirstClaimCreatesDevice() {
	require := s.Require()
	ctx := context.Background()

	result, err := s.claims.Claim(ctx, "UNIT-0001", "a1b2c3d4e5f60718", s.alice)
	require.NoError(err)
	require.True(result.Created)
	require.False(result.AlreadyOwned)
	require.Len(result.AccessToken, 43)
	require.Equal(s.alice, *result.Device.OwnerID)

	device, err := s.registry.GetDevice(ctx, "UNIT-0001")
	require.NoError(err)
	require.Equal("a1b2c3d4e5f60718", device.ClaimDigest)
	require.Equal(result.AccessToken, *device.AccessToken)
	require.Equal(models.DeviceStatusActive, device.Status)
}

func (s *ClaimTestSuite) TestReclaimBySameOwnerIsIdempotent() {
	require := s.Require()
	ctx := context.Background()

	first, err := s.claims.Claim(ctx, "UNIT-0001", "digest", s.alice)
	require.NoError(err)

	second, err := s.claims.Claim(ctx, "UNIT-0001", "digest", s.alice)
	require.NoError(err)
	require.True(second.AlreadyOwned)
	require.False(second.Created)
	require.Equal(first.AccessToken, second.AccessToken)

	device, err := s.registry.GetDeviceByAccessToken(ctx, first.AccessToken)
	require.NoError(err)
	require.Equal("UNIT-0001", device.DeviceID)
}

func (s *ClaimTestSuite) TestClaimByAnotherOwnerFails() {
	require := s.Require()
	ctx := context.Background()

	first, err := s.claims.Claim(ctx, "UNIT-0001", "digest", s.alice)
	require.NoError(err)

	_, err = s.claims.Claim(ctx, "UNIT-0001", "digest", s.bob)
	require.ErrorIs(err, ErrAlreadyClaimed)

	device, err := s.registry.GetDevice(ctx, "UNIT-0001")
	require.NoError(err)
	require.Equal(s.alice, *device.OwnerID)
	require.Equal(first.AccessToken, *device.AccessToken)
}

func (s *ClaimTestSuite) TestInvalidTokenChangesNothing() {
	require := s.Require()
	ctx := context.Background()

	// device reported in before anyone claimed it
	_, _, err := s.registry.EnsureDevice(ctx, "UNIT-0001", "canonical")
	require.NoError(err)

	_, err = s.claims.Claim(ctx, "UNIT-0001", "forged", s.bob)
	require.ErrorIs(err, ErrInvalidToken)

	device, err := s.registry.GetDevice(ctx, "UNIT-0001")
	require.NoError(err)
	require.Nil(device.OwnerID)
	require.Nil(device.AccessToken)
	require.Equal("canonical", device.ClaimDigest)

	_, err = s.claims.Claim(ctx, "UNIT-0001", "", s.bob)
	require.ErrorIs(err, ErrInvalidToken)

	result, err := s.claims.Claim(ctx, "UNIT-0001", "canonical", s.alice)
	require.NoError(err)
	require.False(result.Created)
}

func (s *ClaimTestSuite) TestInvalidDeviceID() {
	_, err := s.claims.Claim(context.Background(), "../etc", "digest", s.alice)
	s.Require().ErrorIs(err, devicekey.ErrInvalidDeviceID)

	var count int64
	s.Require().NoError(s.db.Model(&models.Device{}).Count(&count).Error)
	s.Require().Zero(count)
}

func (s *ClaimTestSuite) TestFactorySecret() {
	require := s.Require()
	ctx := context.Background()

	claims, err := NewCoordinator(zaptest.NewLogger(s.T()).Sugar(), s.registry, s.claims.transaction, WithFactorySecret("s3cret"))
	require.NoError(err)

	_, err = claims.Claim(ctx, "UNIT-0001", "0000000000000000", s.alice)
	require.ErrorIs(err, ErrInvalidToken)
	_, err = s.registry.GetDevice(ctx, "UNIT-0001")
	require.ErrorIs(err, registry.ErrNotFound)

	digest := devicekey.ExpectedDigest("UNIT-0001", "s3cret")
	result, err := claims.Claim(ctx, "UNIT-0001", digest, s.alice)
	require.NoError(err)
	require.True(result.Created)
}

func (s *ClaimTestSuite) TestConcurrentFirstClaims() {
	require := s.Require()
	ctx := context.Background()

	const claimers = 8
	owners := make([]uuid.UUID, claimers)
	for i := range owners {
		owners[i] = dbtest.CreateUser(s.T(), s.db)
	}

	var wg sync.WaitGroup
	errs := make([]error, claimers)
	results := make([]Result, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.claims.Claim(ctx, "UNIT-0001", "digest", owners[i])
		}(i)
	}
	wg.Wait()

	winners := 0
	created := 0
	for i, err := range errs {
		if err == nil {
			winners++
			if results[i].Created {
				created++
			}
			continue
		}
		require.ErrorIs(err, ErrAlreadyClaimed)
	}
	require.Equal(1, winners)
	require.LessOrEqual(created, 1)

	var count int64
	require.NoError(s.db.Model(&models.Device{}).Count(&count).Error)
	require.Equal(int64(1), count)
}

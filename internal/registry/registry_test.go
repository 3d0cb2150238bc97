package registry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leonardo-io/leonardo/internal/database/dbtest"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type RegistryTestSuite struct {
	suite.Suite
	db       *gorm.DB
	registry *Registry
	owner    uuid.UUID
	other    uuid.UUID
}

func TestRegistry(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.db, _ = dbtest.New(s.T())
	s.registry = New(zaptest.NewLogger(s.T()).Sugar(), s.db)
	s.owner = dbtest.CreateUser(s.T(), s.db)
	s.other = dbtest.CreateUser(s.T(), s.db)
}

func (s *RegistryTestSuite) claimed(id string) models.Device {
	require := s.Require()
	_, _, err := s.registry.EnsureDevice(context.Background(), id, "digest")
	require.NoError(err)
	ok, err := s.registry.AssignOwner(context.Background(), id, s.owner, "token-"+id)
	require.NoError(err)
	require.True(ok)
	device, err := s.registry.GetDevice(context.Background(), id)
	require.NoError(err)
	return device
}

func (s *RegistryTestSuite) TestEnsureDevice() {
	require := s.Require()
	ctx := context.Background()

	device, created, err := s.registry.EnsureDevice(ctx, "UNIT-0001", "first")
	require.NoError(err)
	require.True(created)
	require.Equal("UNIT-0001", device.DeviceID)
	require.Equal("first", device.ClaimDigest)
	require.Equal(models.DeviceStatusActive, device.Status)
	require.Equal(models.DevicePlanStandard, device.Plan)
	require.Nil(device.OwnerID)
	require.Nil(device.AccessToken)

	// a second call returns the existing row untouched
	device, created, err = s.registry.EnsureDevice(ctx, "UNIT-0001", "second")
	require.NoError(err)
	require.False(created)
	require.Equal("first", device.ClaimDigest)

	var count int64
	require.NoError(s.db.Model(&models.Device{}).Count(&count).Error)
	require.Equal(int64(1), count)
}

func (s *RegistryTestSuite) TestAssignOwnerOnlyOnce() {
	require := s.Require()
	ctx := context.Background()

	_, _, err := s.registry.EnsureDevice(ctx, "UNIT-0001", "digest")
	require.NoError(err)

	ok, err := s.registry.AssignOwner(ctx, "UNIT-0001", s.owner, "token-a")
	require.NoError(err)
	require.True(ok)

	ok, err = s.registry.AssignOwner(ctx, "UNIT-0001", s.other, "token-b")
	require.NoError(err)
	require.False(ok)

	device, err := s.registry.GetDeviceByAccessToken(ctx, "token-a")
	require.NoError(err)
	require.Equal(s.owner, *device.OwnerID)

	_, err = s.registry.GetDeviceByAccessToken(ctx, "token-b")
	require.ErrorIs(err, ErrNotFound)
	_, err = s.registry.GetDeviceByAccessToken(ctx, "")
	require.ErrorIs(err, ErrNotFound)
}

func (s *RegistryTestSuite) TestGetDevice() {
	require := s.Require()
	ctx := context.Background()
	s.claimed("UNIT-0001")

	_, err := s.registry.GetDevice(ctx, "UNIT-9999")
	require.ErrorIs(err, ErrNotFound)

	_, err = s.registry.GetOwnedDevice(ctx, "UNIT-0001", s.owner)
	require.NoError(err)
	_, err = s.registry.GetOwnedDevice(ctx, "UNIT-0001", s.other)
	require.ErrorIs(err, ErrNotFound)

	devices, err := s.registry.ListOwnedDevices(ctx, s.owner)
	require.NoError(err)
	require.Len(devices, 1)
	devices, err = s.registry.ListOwnedDevices(ctx, s.other)
	require.NoError(err)
	require.Len(devices, 0)
}

func (s *RegistryTestSuite) TestSetStatus() {
	require := s.Require()
	ctx := context.Background()
	s.claimed("UNIT-0001")

	device, err := s.registry.SetStatus(ctx, "UNIT-0001", s.owner, models.DeviceStatusSuspended)
	require.NoError(err)
	require.Equal(models.DeviceStatusSuspended, device.Status)

	_, err = s.registry.SetStatus(ctx, "UNIT-0001", s.owner, "retired")
	require.ErrorIs(err, ErrInvalidConfig)

	_, err = s.registry.SetStatus(ctx, "UNIT-0001", s.other, models.DeviceStatusActive)
	require.ErrorIs(err, ErrNotFound)

	device, err = s.registry.GetDevice(ctx, "UNIT-0001")
	require.NoError(err)
	require.Equal(models.DeviceStatusSuspended, device.Status)
}

func (s *RegistryTestSuite) TestSetPlan() {
	require := s.Require()
	ctx := context.Background()
	s.claimed("UNIT-0001")

	device, err := s.registry.SetPlan(ctx, "UNIT-0001", s.owner, models.DevicePlanPremium)
	require.NoError(err)
	require.Equal(models.DevicePlanPremium, device.Plan)

	_, err = s.registry.SetPlan(ctx, "UNIT-0001", s.owner, "gold")
	require.ErrorIs(err, ErrInvalidConfig)
}

func (s *RegistryTestSuite) TestSetConfig() {
	require := s.Require()
	ctx := context.Background()
	s.claimed("UNIT-0001")

	target := &models.NotificationTarget{Email: "owner@example.com", LineToken: "line"}
	device, err := s.registry.SetConfig(ctx, "UNIT-0001", s.owner, target, []string{"bear", "human", "bear"})
	require.NoError(err)
	require.Equal(*target, device.NotificationTarget)
	require.Equal([]string{"bear", "human"}, []string(device.DetectionTargets))
	require.True(device.Alerts("bear"))
	require.False(device.Alerts("vehicle"))

	// nil leaves the stored value alone
	device, err = s.registry.SetConfig(ctx, "UNIT-0001", s.owner, nil, []string{"vehicle"})
	require.NoError(err)
	require.Equal(*target, device.NotificationTarget)
	require.Equal([]string{"vehicle"}, []string(device.DetectionTargets))

	_, err = s.registry.SetConfig(ctx, "UNIT-0001", s.owner, nil, []string{"dragon"})
	require.ErrorIs(err, ErrInvalidConfig)
	_, err = s.registry.SetConfig(ctx, "UNIT-0001", s.owner, &models.NotificationTarget{Email: "not an address"}, nil)
	require.ErrorIs(err, ErrInvalidConfig)
	_, err = s.registry.SetConfig(ctx, "UNIT-0001", s.other, nil, []string{"bear"})
	require.ErrorIs(err, ErrNotFound)
}

func (s *RegistryTestSuite) TestTouchLastSeen() {
	require := s.Require()
	ctx := context.Background()
	s.claimed("UNIT-0001")

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(s.registry.TouchLastSeen(ctx, "UNIT-0001", now))
	device, err := s.registry.GetDevice(ctx, "UNIT-0001")
	require.NoError(err)
	require.NotNil(device.LastSeenAt)
	require.True(now.Equal(*device.LastSeenAt))
}

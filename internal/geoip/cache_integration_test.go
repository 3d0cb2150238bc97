//go:build integration

package geoip

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		_ = client.Close()
	})

	c := NewRedisCache(zaptest.NewLogger(t).Sugar(), client, time.Minute, "geoip:")
	_, found := c.Get(ctx, "8.8.8.8")
	assert.False(t, found)

	want := Result{Latitude: 35.6895, Longitude: 139.6917, Region: "東京都"}
	c.Put(ctx, "8.8.8.8", want)
	got, found := c.Get(ctx, "8.8.8.8")
	require.True(t, found)
	assert.Equal(t, want, got)

	ttl, err := client.TTL(ctx, "geoip:8.8.8.8").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

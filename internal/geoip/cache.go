package geoip

import (
	"context"
	"encoding/json"
	"time"

	"github.com/leonardo-io/leonardo/internal/util/cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultCacheTTL = 6 * time.Hour

// MemoryCache keeps results in process.
type MemoryCache struct {
	entries *cache.RWMutexTTLCache[string, Result]
}

var _ Cache = &MemoryCache{}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		entries: cache.NewRWMutexTTLCache[string, Result](ttl),
	}
}

func (m *MemoryCache) Get(_ context.Context, ip string) (Result, bool) {
	return m.entries.Get(ip)
}

func (m *MemoryCache) Put(_ context.Context, ip string, result Result) {
	m.entries.Put(ip, result)
}

// Sweep drops expired entries, it is meant to be called periodically.
func (m *MemoryCache) Sweep() int {
	return m.entries.Sweep()
}

// RedisCache shares results between api server replicas.
type RedisCache struct {
	logger    *zap.SugaredLogger
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

var _ Cache = &RedisCache{}

func NewRedisCache(logger *zap.SugaredLogger, client *redis.Client, ttl time.Duration, keyPrefix string) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		logger:    logger,
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

func (r *RedisCache) Get(ctx context.Context, ip string) (Result, bool) {
	data, err := r.client.Get(ctx, r.keyPrefix+ip).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debugw("geoip cache read failed", "ip", ip, "error", err)
		}
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, false
	}
	return result, true
}

func (r *RedisCache) Put(ctx context.Context, ip string, result Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, r.keyPrefix+ip, data, r.ttl).Err(); err != nil {
		r.logger.Debugw("geoip cache write failed", "ip", ip, "error", err)
	}
}

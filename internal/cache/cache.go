// Package cache provides a byte-valued TTL cache for fetched payloads,
// backed by Redis when configured and process memory otherwise.
package cache

import (
	"context"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/config"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/infra"
)

// Cache stores serialized payloads with per-entry TTLs. Get treats any
// backend failure as a miss; the sources can always refetch.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// FromConfig selects Redis when an address is configured, otherwise the
// in-memory cache.
func FromConfig(cfg *config.Config) (Cache, error) {
	if cfg.Cache.RedisAddr == "" {
		return NewMemory(time.Duration(cfg.Cache.SnapshotTTL) * time.Second), nil
	}
	return NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
}

// Memory is an in-process Cache on top of the shared infra cache.
type Memory struct {
	inner *infra.Cache
}

// NewMemory creates an in-memory cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &Memory{inner: infra.NewCache(defaultTTL)}
}

// Get returns the cached payload, or a miss when absent or expired.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.inner.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Set stores a payload. A non-positive TTL falls back to the default.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		m.inner.Set(key, value)
		return nil
	}
	m.inner.SetWithTTL(key, value, ttl)
	return nil
}

// Invalidate removes a key.
func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.inner.Invalidate(key)
	return nil
}

// Close is a no-op for the in-memory cache.
func (m *Memory) Close() error { return nil }

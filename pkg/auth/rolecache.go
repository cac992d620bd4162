package auth

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/edupilot/edupilot/pkg/observability"
)

const (
	roleCachePrefix = "auth:role:"

	// RoleCacheTTL bounds role staleness; invalidation is by expiry only.
	RoleCacheTTL = time.Hour
)

// RoleReader is the slice of the user store the role cache needs.
type RoleReader interface {
	ReadRole(ctx context.Context, uuid string) (string, error)
}

// RoleCache is a read-through cache from user id to role backed by the
// shared KV store. A KV outage degrades to direct store reads; the request
// only fails when the store itself is unavailable.
type RoleCache struct {
	kv        *redis.Client
	store     RoleReader
	ttl       time.Duration
	kvTimeout time.Duration
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewRoleCache creates a role cache over the given KV client and store.
func NewRoleCache(kv *redis.Client, store RoleReader, kvTimeout time.Duration, logger *observability.Logger) *RoleCache {
	if kvTimeout <= 0 {
		kvTimeout = 500 * time.Millisecond
	}
	return &RoleCache{
		kv:        kv,
		store:     store,
		ttl:       RoleCacheTTL,
		kvTimeout: kvTimeout,
		logger:    logger,
	}
}

// WithMetrics attaches hit/miss counters.
func (c *RoleCache) WithMetrics(m *observability.Metrics) *RoleCache {
	c.metrics = m
	return c
}

// Get returns the role for a user id, reading through to the store on miss.
// Two concurrent misses may both read the store and write identical values;
// that is tolerated.
func (c *RoleCache) Get(ctx context.Context, uuid string) (string, error) {
	key := roleCachePrefix + uuid

	kvCtx, cancel := context.WithTimeout(ctx, c.kvTimeout)
	role, err := c.kv.Get(kvCtx, key).Result()
	cancel()
	if err == nil {
		if c.metrics != nil {
			c.metrics.RoleCacheHitsTotal.Inc()
		}
		return role, nil
	}
	if err != redis.Nil {
		// Cache unreachable: fall back to the store, don't fail the request.
		c.logger.WithError(err).Warn("role cache read failed, falling back to store")
	}
	if c.metrics != nil {
		c.metrics.RoleCacheMissTotal.Inc()
	}

	role, err = c.store.ReadRole(ctx, uuid)
	if err != nil {
		return "", err
	}

	// Store first, then cache: a cancelled request never leaves a cache
	// entry the store did not confirm.
	kvCtx, cancel = context.WithTimeout(ctx, c.kvTimeout)
	if err := c.kv.Set(kvCtx, key, role, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("role cache write failed")
	}
	cancel()

	return role, nil
}

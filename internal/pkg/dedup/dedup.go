// Package dedup remembers recently processed webhook event ids.
package dedup

import (
	"context"
	"errors"
	"strings"
	"time"

	"provider-marketplace-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Deduplicator is a fast path only. Correctness of webhook handling does not
// depend on it; the store transition is the source of truth. Only events whose
// processing has committed are remembered, so an in-flight or failed delivery
// is never reported as seen.
type Deduplicator interface {
	// Seen reports whether id was remembered within the TTL.
	Seen(ctx context.Context, id string) (bool, error)
	// Remember records id as fully processed.
	Remember(ctx context.Context, id string) error
}

type RedisDeduplicator struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisDeduplicator(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisDeduplicator {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "webhook:event"
	}
	return &RedisDeduplicator{client: client, prefix: prefix, ttl: ttl}
}

func (d *RedisDeduplicator) key(id string) string {
	return d.prefix + ":" + id
}

func (d *RedisDeduplicator) Seen(ctx context.Context, id string) (bool, error) {
	_, err := d.client.Get(ctx, d.key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *RedisDeduplicator) Remember(ctx context.Context, id string) error {
	return d.client.Set(ctx, d.key(id), time.Now().Unix(), d.ttl).Err()
}

type MemoryDeduplicator struct {
	cache *cache.Cache
}

func NewMemoryDeduplicator(ttl time.Duration) *MemoryDeduplicator {
	return &MemoryDeduplicator{cache: cache.New(ttl, 2*ttl)}
}

func (d *MemoryDeduplicator) Seen(ctx context.Context, id string) (bool, error) {
	_, found := d.cache.Get(id)
	return found, nil
}

func (d *MemoryDeduplicator) Remember(ctx context.Context, id string) error {
	d.cache.SetDefault(id, struct{}{})
	return nil
}

// FallbackDeduplicator prefers primary and degrades to secondary when primary errors.
type FallbackDeduplicator struct {
	primary   Deduplicator
	secondary Deduplicator
	log       logger.ILogger
}

func NewFallbackDeduplicator(primary, secondary Deduplicator, log logger.ILogger) *FallbackDeduplicator {
	return &FallbackDeduplicator{primary: primary, secondary: secondary, log: log}
}

func (d *FallbackDeduplicator) Seen(ctx context.Context, id string) (bool, error) {
	ok, err := d.primary.Seen(ctx, id)
	if err == nil {
		return ok, nil
	}
	d.log.Warn("DEDUP", "Primary deduplicator unavailable, using fallback", map[string]interface{}{
		"event_id": id,
		"error":    err.Error(),
	})
	return d.secondary.Seen(ctx, id)
}

func (d *FallbackDeduplicator) Remember(ctx context.Context, id string) error {
	if err := d.primary.Remember(ctx, id); err != nil {
		d.log.Warn("DEDUP", "Primary deduplicator unavailable, using fallback", map[string]interface{}{
			"event_id": id,
			"error":    err.Error(),
		})
		return d.secondary.Remember(ctx, id)
	}
	return nil
}

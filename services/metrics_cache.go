package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	metricsCacheTTL     = 2 * time.Minute
	metricsVersionKey   = "dashboard:metrics:version"
	metricsCachePrefix  = "dashboard:metrics"
	metricsCacheTimeout = 2 * time.Second
)

// MetricsCache stores computed dashboard payloads in Redis. Keys embed a version number
// and Invalidate bumps it, so stale entries simply age out.
// A nil client turns every call into a miss.
type MetricsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewMetricsCache(client *redis.Client) *MetricsCache {
	return &MetricsCache{client: client, ttl: metricsCacheTTL}
}

func (c *MetricsCache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *MetricsCache) key(ctx context.Context, name string) (string, error) {
	version, err := c.client.Get(ctx, metricsVersionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d:%s", metricsCachePrefix, version, name), nil
}

// Get loads a cached value into dest and reports whether it was found
func (c *MetricsCache) Get(ctx context.Context, name string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, metricsCacheTimeout)
	defer cancel()

	key, err := c.key(ctx, name)
	if err != nil {
		log.Printf("Metrics cache unavailable: %v", err)
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Metrics cache read failed: %v", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("Metrics cache entry %s is corrupt: %v", key, err)
		return false
	}
	return true
}

// Set stores value under name
func (c *MetricsCache) Set(ctx context.Context, name string, value interface{}) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, metricsCacheTimeout)
	defer cancel()

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	key, err := c.key(ctx, name)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("Metrics cache write failed: %v", err)
	}
}

// Invalidate drops every cached payload
func (c *MetricsCache) Invalidate(ctx context.Context) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, metricsCacheTimeout)
	defer cancel()

	if err := c.client.Incr(ctx, metricsVersionKey).Err(); err != nil {
		log.Printf("Metrics cache invalidation failed: %v", err)
	}
}

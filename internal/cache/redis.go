package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"protocolLens/internal/engine"
)

const keyPrefix = "protolens:report:"

// RedisReportCache shares analysis reports between processes, keyed by input
// hash.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ engine.ReportCache = (*RedisReportCache)(nil)

func NewRedisReportCache(addr, password string, db int, ttl time.Duration) *RedisReportCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisReportCache{client: client, ttl: ttl}
}

// Get returns the cached report for a hash.
func (r *RedisReportCache) Get(ctx context.Context, hash string) (engine.Report, bool, error) {
	data, err := r.client.Get(ctx, Key(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return engine.Report{}, false, nil
		}
		return engine.Report{}, false, err
	}

	var report engine.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return engine.Report{}, false, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, true, nil
}

// Set stores a report under its hash. A zero ttl keeps it until evicted.
func (r *RedisReportCache) Set(ctx context.Context, hash string, report engine.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return r.client.Set(ctx, Key(hash), data, r.ttl).Err()
}

func (r *RedisReportCache) Close() error {
	return r.client.Close()
}

// Key is the Redis key a report hash is stored under.
func Key(hash string) string {
	return keyPrefix + hash
}

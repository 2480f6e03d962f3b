package redis

import (
	"context"
	"fmt"

	"github.com/pscheid92/classpoll/internal/adapter/metrics"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient creates a client from a URL (e.g. "redis://localhost:6379"),
// installs the hooks and pings the server.
func NewClient(ctx context.Context, redisURL string, m *metrics.RedisMetrics) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opts)
	rdb.AddHook(NewMetricsHook(m))
	rdb.AddHook(NewCircuitBreakerHook(m))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

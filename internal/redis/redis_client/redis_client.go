package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const dialCheckTimeout = 5 * time.Second

// NewRedisClient connects and pings the results/leaderboard Redis.
func NewRedisClient(ctx context.Context, host string, port int) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		PoolSize: poolSize(),
	})

	ctx, cancelFunc := context.WithTimeout(ctx, dialCheckTimeout)
	defer cancelFunc()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		zap.L().Error("redis_connect", zap.String("host", host), zap.Int("port", port), zap.Error(err))
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rc, nil
}

func poolSize() int {
	n := runtime.NumCPU() * 4
	if n < 8 {
		n = 8
	}
	if n > 256 {
		n = 256
	}
	return n
}

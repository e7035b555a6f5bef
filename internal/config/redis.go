package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const DEFAULT_REDIS_POOL_SIZE = 100

// NewRedisClient serves the thread cache, the session lookup and the room
// relay. The relay holds one pub/sub connection outside the pool for as long
// as the server runs.
func NewRedisClient(config *koanf.Koanf, log *zap.Logger) *redis.Client {
	poolSize := config.Int("REDIS_POOL_SIZE")
	if poolSize <= 0 {
		poolSize = DEFAULT_REDIS_POOL_SIZE
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            config.String("REDIS_URL"),
		Password:        config.String("REDIS_PASSWORD"),
		ClientName:      "virdanthread",
		PoolSize:        poolSize,
		MinIdleConns:    poolSize / 10,
		PoolTimeout:     30 * time.Second,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	err := redisotel.InstrumentTracing(rdb)
	if err != nil {
		log.Fatal("failed to instrument redis tracing", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		log.Fatal("failed to connect redis", zap.Error(err))
	}

	log.Info("redis connected", zap.String("addr", rdb.Options().Addr), zap.Int("poolSize", poolSize))

	return rdb
}

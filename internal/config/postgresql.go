package config

import (
	"context"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	DEFAULT_POSTGRES_MAX_CONNS = 20
	DEFAULT_POSTGRES_MIN_CONNS = 2
)

func NewPostgresqlPool(config *koanf.Koanf, log *zap.Logger) *pgxpool.Pool {
	pgxConfig, err := pgxpool.ParseConfig(config.String("POSTGRES_URL"))
	if err != nil {
		log.Fatal("failed to parse postgresql config", zap.Error(err))
	}

	maxConns := config.Int("POSTGRES_MAX_CONNS")
	if maxConns <= 0 {
		maxConns = DEFAULT_POSTGRES_MAX_CONNS
	}

	minConns := config.Int("POSTGRES_MIN_CONNS")
	if minConns <= 0 || minConns > maxConns {
		minConns = min(DEFAULT_POSTGRES_MIN_CONNS, maxConns)
	}

	pgxConfig.MaxConns = int32(maxConns)
	pgxConfig.MinConns = int32(minConns)
	pgxConfig.MaxConnLifetime = 30 * time.Minute
	pgxConfig.MaxConnIdleTime = 5 * time.Minute
	pgxConfig.HealthCheckPeriod = time.Minute
	pgxConfig.ConnConfig.Tracer = otelpgx.NewTracer()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pgxConfig)
	if err != nil {
		log.Fatal("failed to create pgx pool", zap.Error(err))
	}

	err = pool.Ping(ctx)
	if err != nil {
		log.Fatal("failed to ping postgresql database", zap.Error(err))
	}

	log.Info("connected to postgresql", zap.Int("maxConns", maxConns))

	return pool
}

// Package db opens and verifies the service's backing connections.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Conns bundles the two backing stores the service needs: Postgres for
// résumé documents, Redis for the KV store and event publishing.
type Conns struct {
	Pool *pgxpool.Pool
	RDB  *redis.Client
}

// Connect opens and pings both stores. maxConns caps the Postgres pool;
// zero keeps the driver default. Fail-fast: any failure closes whatever
// was already opened and returns.
func Connect(ctx context.Context, databaseURL, redisURL string, maxConns int32) (*Conns, error) {
	pgCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if maxConns > 0 {
		pgCfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.NewWithConfig: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Conns{Pool: pool, RDB: rdb}, nil
}

// Close releases both connections.
func (c *Conns) Close() {
	c.Pool.Close()
	_ = c.RDB.Close()
}

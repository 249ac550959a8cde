// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// PoolConfig tunes the connection pool opened by Connect.
type PoolConfig struct {
	MaxConns       int32
	ConnectTimeout time.Duration
	// RetryBase is the first backoff between ping attempts. Zero uses 250ms.
	RetryBase time.Duration
}

const defaultRetryBase = 250 * time.Millisecond

// Connect opens a pgx pool for databaseURL and pings it until the database
// answers or cfg.ConnectTimeout elapses.
func Connect(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := pingWithRetry(ctx, pool, cfg); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingWithRetry(ctx context.Context, db pinger, cfg PoolConfig) error {
	base := cfg.RetryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	backoff := retry.WithCappedDuration(5*time.Second, retry.NewExponential(base))
	if cfg.ConnectTimeout > 0 {
		backoff = retry.WithMaxDuration(cfg.ConnectTimeout, backoff)
	}

	attempts := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := db.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping database").
			With("attempts", attempts).
			Wrap(err)
	}
	return nil
}

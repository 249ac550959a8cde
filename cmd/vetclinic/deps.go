// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth/postgres"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/observability"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/store"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/web"
)

// Database is the pool surface the commands need. *pgxpool.Pool satisfies it.
type Database interface {
	postgres.Querier
	Ping(ctx context.Context) error
	Close()
}

// Migrator is the schema migration surface. *store.Migrator satisfies it.
type Migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Status() (store.Status, error)
	Close() error
}

// ObservabilityServer serves metrics and probes.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
	Metrics() *observability.Metrics
}

// HTTPServer serves the public API.
type HTTPServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

// HTTPServerFactory builds the public API server.
type HTTPServerFactory func(cfg web.Config, svc web.AuthService, tokens auth.TokenService, metrics *observability.Metrics, logger *slog.Logger) (HTTPServer, error)

// Deps holds the injectable dependencies of the commands. Nil fields fall
// back to production implementations.
type Deps struct {
	DatabaseFactory            func(ctx context.Context, url string, cfg store.PoolConfig) (Database, error)
	MigratorFactory            func(url string) (Migrator, error)
	ObservabilityServerFactory func(addr string, readiness observability.ReadinessChecker) ObservabilityServer
	HTTPServerFactory          HTTPServerFactory
	HTTPClient                 *http.Client
	// Ready is called once every listener is up. Tests use it to learn
	// the bound addresses.
	Ready func(httpAddr, metricsAddr string)
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.DatabaseFactory == nil {
		out.DatabaseFactory = func(ctx context.Context, url string, cfg store.PoolConfig) (Database, error) {
			pool, err := store.Connect(ctx, url, cfg)
			if err != nil {
				return nil, err
			}
			return pool, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, readiness observability.ReadinessChecker) ObservabilityServer {
			return observability.NewServer(addr, readiness)
		}
	}
	if out.HTTPServerFactory == nil {
		out.HTTPServerFactory = func(cfg web.Config, svc web.AuthService, tokens auth.TokenService, metrics *observability.Metrics, logger *slog.Logger) (HTTPServer, error) {
			srv, err := web.NewServer(cfg, svc, tokens, metrics, web.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			return srv, nil
		}
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: 2 * time.Second}
	}
	if out.Ready == nil {
		out.Ready = func(string, string) {}
	}
	return &out
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth/postgres"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/config"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/logging"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/observability"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/store"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/web"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/pkg/errutil"
)

const (
	serviceName     = "vetclinic"
	shutdownTimeout = 5 * time.Second
)

type serveOptions struct {
	autoMigrate bool
}

func newServeCmd(root *rootOptions, deps *Deps) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the public HTTP API and, unless --metrics-addr is empty, the
metrics and health probe listener. Stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cmd, cfg, opts, deps)
		},
	}

	cmd.Flags().BoolVar(&opts.autoMigrate, "auto-migrate", false, "apply pending schema migrations before serving")

	return cmd
}

// runServe starts every listener and blocks until ctx is cancelled, a
// signal arrives, or a listener fails.
func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts *serveOptions, deps *Deps) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: serviceName,
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	db, err := deps.DatabaseFactory(ctx, cfg.Database.URL, store.PoolConfig{
		MaxConns:       cfg.Database.MaxConns,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	if opts.autoMigrate {
		if err := applyMigrations(cfg.Database.URL, deps, logger); err != nil {
			return err
		}
	}

	tokens, err := auth.NewJWTTokenService([]byte(cfg.Auth.TokenSecret),
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithTokenIssuer(serviceName),
	)
	if err != nil {
		return err
	}
	svc, err := auth.NewService(postgres.NewUserRepository(db), auth.NewPBKDF2Hasher(), tokens,
		auth.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var (
		obsServer ObservabilityServer
		metrics   *observability.Metrics
	)
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, db.Ping)
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		defer stopServer(logger, "observability", obsServer)
		go monitorServerErrors(runCtx, cancel, obsErrCh, "observability")
		metrics = obsServer.Metrics()
		logger.Info("observability server started", "addr", obsServer.Addr())
	}

	httpServer, err := deps.HTTPServerFactory(web.Config{
		Addr:         cfg.HTTP.Addr,
		CookieSecure: cfg.Auth.CookieSecure,
		TokenTTL:     cfg.Auth.TokenTTL,
	}, svc, tokens, metrics, logger)
	if err != nil {
		return err
	}
	httpErrCh, err := httpServer.Start()
	if err != nil {
		return err
	}
	defer stopServer(logger, "http", httpServer)
	go monitorServerErrors(runCtx, cancel, httpErrCh, "http")

	metricsAddr := ""
	if obsServer != nil {
		metricsAddr = obsServer.Addr()
	}
	logger.Info("vetclinic ready", "http_addr", httpServer.Addr(), "metrics_addr", metricsAddr)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "vetclinic started on " + httpServer.Addr())
	deps.Ready(httpServer.Addr(), metricsAddr)

	<-runCtx.Done()

	cause := context.Cause(runCtx)
	if cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		return cause
	}
	logger.Info("shutting down")
	return nil
}

// stopServer stops srv within shutdownTimeout, logging any failure.
func stopServer(logger *slog.Logger, name string, srv interface{ Stop(context.Context) error }) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		errutil.LogError(logger, "error stopping server", oops.With("server", name).Wrap(err))
	}
}

// monitorServerErrors cancels the run context with the first error a
// server reports. A closed channel means the server stopped cleanly.
func monitorServerErrors(ctx context.Context, cancel context.CancelCauseFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok || err == nil {
			return
		}
		slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
		cancel(oops.Code("SERVER_FAILED").With("server", serverName).Wrap(err))
	case <-ctx.Done():
	}
}

// applyMigrations runs pending migrations and always closes the migrator.
func applyMigrations(url string, deps *Deps, logger *slog.Logger) (err error) {
	m, err := deps.MigratorFactory(url)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	v, _, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("schema migrated", "version", v)
	return nil
}

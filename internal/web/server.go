// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/oops"

	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/auth"
	"github.com/JanBoseyur/SoftwareVeterinaria-App/internal/observability"
)

// Config configures the HTTP surface.
type Config struct {
	Addr string
	// CookieSecure sets the Secure attribute on the session cookie.
	CookieSecure bool
	// TokenTTL becomes the cookie Max-Age. It should match the token service.
	TokenTTL time.Duration
}

// Server is the public HTTP API.
type Server struct {
	cfg        Config
	echo       *echo.Echo
	logger     *slog.Logger
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer wires routes and middleware. metrics may be nil, in which case
// measurements go to a private registry.
func NewServer(cfg Config, svc AuthService, tokens auth.TokenService, metrics *observability.Metrics, opts ...Option) (*Server, error) {
	if svc == nil {
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Code("WEB_SERVER_INVALID").Errorf("token service is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = auth.DefaultTokenTTL
	}
	if metrics == nil {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	s := &Server{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = newErrorHandler(s.logger)

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(s.logger))
	e.Use(requestMetrics(metrics))

	h := &handlers{
		svc:     svc,
		tokens:  tokens,
		metrics: metrics,
		cookies: cookieJar{secure: cfg.CookieSecure, ttl: cfg.TokenTTL},
	}

	api := e.Group("/api")
	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)
	api.POST("/auth/logout", h.logout)
	api.GET("/auth/me", h.me)
	api.GET("/users", h.listUsers)

	dash := e.Group("/dashboard", requireSession(tokens, metrics))
	dash.GET("", h.dashboard)

	s.echo = e
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on cfg.Addr and serves in the background. Serve errors
// arrive on the returned channel, which closes once the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("WEB_SERVER_RUNNING").Errorf("http server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("http server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("http server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown http server").Wrap(err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

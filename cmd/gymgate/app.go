package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avdeev/gymgate/internal/db"
	"github.com/avdeev/gymgate/internal/handlers"
	"github.com/avdeev/gymgate/internal/logger"
	"github.com/avdeev/gymgate/internal/monitoring"
	"github.com/avdeev/gymgate/internal/repository/postgres"
	"github.com/avdeev/gymgate/internal/service/access"
	"github.com/avdeev/gymgate/internal/service/auth"
	"github.com/avdeev/gymgate/internal/service/portal"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	secureCookies := c.Environment == logger.EnvProduction

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	metrics := monitoring.NewMetrics()

	accessService, err := access.NewService(storage, metrics)
	if err != nil {
		return nil, fmt.Errorf("error while creating access service. Err: %w", err)
	}
	portalService, err := portal.NewService(portal.Config{
		SecretKey:    c.SecretKey,
		SecureCookie: secureCookies,
	}, storage.Member())
	if err != nil {
		return nil, fmt.Errorf("error while creating portal service. Err: %w", err)
	}
	adminAuth, err := auth.NewService(auth.Config{
		SecretKey:    c.SecretKey,
		SecureCookie: secureCookies,
	}, storage.Owner())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Complete all together as router
	api := handlers.NewRouter(
		handlers.RouterConfig{
			PortalOrigins: c.PortalOrigins,
			Metrics:       metrics.HTTPMiddleware,
		},
		accessService,
		portalService,
		adminAuth,
		logger,
	)

	mux := http.NewServeMux()
	mux.Handle("/api/", api)
	mux.Handle("GET /metrics", metrics.Handler())

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

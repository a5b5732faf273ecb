package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/digibank/internal/db"
	"github.com/nkiryanov/digibank/internal/handlers"
	"github.com/nkiryanov/digibank/internal/logger"
	"github.com/nkiryanov/digibank/internal/metrics"
	"github.com/nkiryanov/digibank/internal/repository"
	"github.com/nkiryanov/digibank/internal/repository/memory"
	"github.com/nkiryanov/digibank/internal/repository/postgres"
	"github.com/nkiryanov/digibank/internal/service/account"
	"github.com/nkiryanov/digibank/internal/service/admin"
	"github.com/nkiryanov/digibank/internal/service/auth"
	"github.com/nkiryanov/digibank/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/digibank/internal/service/ledger"
	"github.com/nkiryanov/digibank/internal/service/transfer"
	"github.com/nkiryanov/digibank/internal/service/user"
)

const shutdownTimeout = 5 * time.Second

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	close  func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations or keep everything in memory
	var storage repository.Storage
	closeStorage := func() {}
	if c.DatabaseDSN != "" {
		pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN, db.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
		}
		storage = postgres.NewStorage(pool)
		closeStorage = pool.Close
	} else {
		logger.Warn("Database is not configured, data is kept in memory")
		storage = memory.NewStorage()
	}

	app, err := newServerApp(ctx, c, logger, storage)
	if err != nil {
		closeStorage()
		return nil, err
	}
	app.close = closeStorage

	return app, nil
}

func newServerApp(ctx context.Context, c *Config, l logger.Logger, storage repository.Storage) (*ServerApp, error) {
	m := metrics.New()

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey}, storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	userService := user.NewService(user.Config{InitialBalance: &c.InitialBalance}, storage)
	authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	if c.AdminLogin != "" {
		u, err := userService.EnsureAdmin(ctx, c.AdminLogin, c.AdminPassword)
		if err != nil {
			return nil, fmt.Errorf("error while ensuring admin. Err: %w", err)
		}
		l.Info("Admin is ready", "username", u.Username, "id", u.ID)
	}

	router := handlers.NewRouter(handlers.Services{
		Auth:      authService,
		Accounts:  account.NewService(storage, nil),
		Transfers: transfer.NewEngine(storage, l, m),
		Ledger:    ledger.NewService(storage),
		Admin:     admin.NewService(storage, l),
	}, l, m)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		logger:     l,
		close:      func() {},
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

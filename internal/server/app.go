// Package server wires configuration, storage, the authentication service
// and the HTTP transport into one runnable application.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	hs "github.com/dmitrijs2005/gophauth/internal/server/http"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *hs.HTTPServer
}

// openStorage is a seam so tests can avoid a real database.
var openStorage = func(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	opt := repomanager.WithUserPolicy(userPolicy(c))
	if c.StorageMode == config.StorageMemory {
		return repomanager.NewInMemoryRepositoryManager(opt), nil
	}
	return repomanager.OpenPostgres(ctx, c.DatabaseDSN, opt)
}

func userPolicy(c *config.Config) users.Policy {
	p := users.DefaultPolicy
	p.RequiredLength = c.PasswordMinLength
	return p
}

// NewApp builds every component from c. Configuration problems (signing
// secret, issuer, hash algorithm) surface here, before anything listens.
func NewApp(ctx context.Context, c *config.Config, logOutput io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, logOutput)
	if err != nil {
		return nil, err
	}

	algorithm, err := cryptox.ParseAlgorithm(c.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	hasher, err := cryptox.NewHasher(algorithm)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		SecretKey: c.SecretKey,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		TTL:       c.TokenTTL,
	})
	if err != nil {
		return nil, err
	}

	rm, err := openStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()

	svc, err := services.NewAuthService(rm, hasher, issuer, logger,
		services.WithDefaultRole(c.DefaultRole),
		services.WithMetrics(m),
	)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	srv := hs.NewHTTPServer(c.EndpointAddrHTTP, logger, svc, issuer, m, hs.Options{
		LoginRateLimit:  c.LoginRateLimit,
		LoginRateBurst:  c.LoginRateBurst,
		ShutdownTimeout: c.ShutdownTimeout,
		TrustedProxies:  c.TrustedProxies,
	})

	return &App{config: c, logger: logger, repomanager: rm, httpServer: srv}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then closes
// storage.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageMode)

	runErr := app.httpServer.Run(ctx)

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "closing storage", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
	return runErr
}

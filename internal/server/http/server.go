// Package http exposes the authentication service over HTTP/JSON using gin.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// AuthService is implemented by *services.AuthService.
type AuthService interface {
	Register(ctx context.Context, req services.RegisterRequest) (services.Outcome, error)
	Login(ctx context.Context, req services.LoginRequest) (services.Outcome, error)
	Me(ctx context.Context, claims auth.ClaimSet) (services.Outcome, error)
}

// TokenParser is implemented by *auth.Issuer.
type TokenParser interface {
	Parse(token string) (auth.ClaimSet, error)
}

// Options tune the transport. Zero values fall back to the defaults below.
type Options struct {
	LoginRateLimit  float64
	LoginRateBurst  int
	ShutdownTimeout time.Duration

	// TrustedProxies may set the client address through X-Forwarded-For.
	// With none, the rate limiter keys on the connection's remote address.
	TrustedProxies []string
}

type HTTPServer struct {
	address string
	service AuthService
	tokens  TokenParser
	metrics *metrics.Metrics
	logger  logging.Logger
	opts    Options
	engine  *gin.Engine
}

func NewHTTPServer(address string, l logging.Logger, s AuthService, tokens TokenParser, m *metrics.Metrics, opts Options) *HTTPServer {
	if opts.LoginRateLimit <= 0 {
		opts.LoginRateLimit = 1
	}
	if opts.LoginRateBurst < 1 {
		opts.LoginRateBurst = 5
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if m == nil {
		m = metrics.New()
	}

	srv := &HTTPServer{
		address: address,
		service: s,
		tokens:  tokens,
		metrics: m,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
	srv.engine = srv.routes()
	return srv
}

func (s *HTTPServer) routes() *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(s.opts.TrustedProxies); err != nil {
		s.logger.Error(context.Background(), "ignoring trusted proxies", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(s.recovery(), requestID(), s.observe())

	r.GET("/healthz", s.health)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	limiter := newMultiLimiter(rate.Limit(s.opts.LoginRateLimit), s.opts.LoginRateBurst, 10*time.Minute)

	g := r.Group("/auth")
	g.POST("/register", s.register)
	g.POST("/login", s.rateLimit(limiter), s.login)
	g.GET("/me", s.bearerAuth(), s.me)

	return r
}

// Handler exposes the routed engine, mainly for tests.
func (s *HTTPServer) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HTTPServer) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// Package rpc exposes the node over JSON-RPC. Transitions arrive as signed
// envelopes; queries are unsigned.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"passmint/core"
	"passmint/services/indexer"
)

// Config tunes the HTTP surface.
type Config struct {
	RateLimit    RateLimit
	NonceTTL     time.Duration
	Admin        AdminConfig
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig returns conservative limits suitable for a single node.
func DefaultConfig() Config {
	return Config{
		RateLimit:    RateLimit{RequestsPerMinute: 600, Burst: 60},
		NonceTTL:     15 * time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

type Server struct {
	node    *core.Node
	index   *indexer.Store
	cfg     Config
	logger  *slog.Logger
	limiter *RateLimiter
	admin   *Authenticator
	nonces  *nonceCache
	nowFn   func() time.Time
	methods map[string]method

	httpServer *http.Server
}

// NewServer wires the handlers for node. index may be nil, in which case the
// event listing method reports the index as unavailable.
func NewServer(node *core.Node, index *indexer.Store, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = DefaultConfig().NonceTTL
	}
	s := &Server{
		node:    node,
		index:   index,
		cfg:     cfg,
		logger:  logger,
		limiter: NewRateLimiter(cfg.RateLimit),
		admin:   NewAuthenticator(cfg.Admin, logger),
		nonces:  newNonceCache(cfg.NonceTTL),
		nowFn:   time.Now,
	}
	s.methods = s.registerMethods()
	s.httpServer = &http.Server{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.With(s.limiter.Middleware("rpc")).Post("/rpc", s.handle)
	r.Route("/admin", func(ar chi.Router) {
		ar.Use(s.admin.Middleware("admin"))
		ar.Get("/pauses/{module}", s.handlePauseStatus)
		ar.Post("/pause/{module}", s.handlePause(true))
		ar.Post("/resume/{module}", s.handlePause(false))
		ar.Post("/commit", s.handleCommit)
	})
	return otelhttp.NewHandler(r, "passmint-rpc")
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer.Handler = s.Handler()
	s.logger.Info("rpc listening", slog.String("addr", ln.Addr().String()))
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

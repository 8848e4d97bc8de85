package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/FairForge/labelbench/internal/loadtest"
)

// SweepSource exposes the live state of a sweep.
type SweepSource interface {
	Progress() loadtest.Progress
	Summaries() []loadtest.LevelSummary
}

// Server serves the status endpoints of a running benchmark.
type Server struct {
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
	sweep      SweepSource
	metrics    http.Handler

	requestCount int64
	startTime    time.Time
}

// NewServer wires /healthz, /progress, /summaries and, when metrics is
// non-nil, /metrics.
func NewServer(addr string, sweep SweepSource, metrics http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:    logger,
		router:    chi.NewRouter(),
		sweep:     sweep,
		metrics:   metrics,
		startTime: time.Now(),
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/progress", s.handleProgress)
	s.router.Get("/summaries", s.handleSummaries)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.requestCount, 1)
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("latency", time.Since(start)),
		)
	})
}

// Start serves on ln until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(ln net.Listener) error {
	s.logger.Info("Starting status server", zap.String("addr", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Start(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Package api serves project status and reference analysis over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"javaseeker/internal/analysis"
	"javaseeker/internal/jobs"
	"javaseeker/internal/metrics"
	"javaseeker/internal/projects"
)

// Analyzer runs analysis requests.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
	Stream(ctx context.Context, req analysis.Request, emit func(analysis.Reference) error) (*analysis.Result, error)
}

// Projects reads the configured projects.
type Projects interface {
	Get(name string) (projects.Descriptor, bool)
	List() []projects.Descriptor
}

// History lists lifecycle runs.
type History interface {
	ListJobs(opts jobs.ListJobsOptions) (*jobs.ListJobsResponse, error)
}

// Options configures a Server. History and Ready are optional.
type Options struct {
	Addr     string
	Version  string
	Analyzer Analyzer
	Projects Projects
	History  History
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	// Ready reports whether the lifecycle engine is up; nil means always.
	Ready func() error
	// RequestsPerSecond and Burst limit the analysis endpoints; zero
	// disables the limit.
	RequestsPerSecond float64
	Burst             int
}

// Server represents the HTTP API server
type Server struct {
	router  *gin.Engine
	server  *http.Server
	addr    string
	logger  *slog.Logger
	started time.Time

	version  string
	analyzer Analyzer
	projects Projects
	history  History
	metrics  *metrics.Metrics
	ready    func() error
	limiter  *rate.Limiter
}

// NewServer creates a new HTTP server instance
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		addr:     opts.Addr,
		logger:   logger,
		started:  time.Now(),
		version:  opts.Version,
		analyzer: opts.Analyzer,
		projects: opts.Projects,
		history:  opts.History,
		metrics:  opts.Metrics,
		ready:    opts.Ready,
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	s.router = gin.New()
	s.router.Use(RecoveryMiddleware(logger), RequestIDMiddleware(), LoggingMiddleware(logger), MetricsMiddleware(opts.Metrics))
	s.registerRoutes()

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Run serves until ctx is done, then shuts down within the grace period.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.logger.Info("Starting HTTP server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

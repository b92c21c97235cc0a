// Package api serves the propagation engine over HTTP/JSON.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kreyysyy/orbit/internal/auth"
	"github.com/kreyysyy/orbit/internal/health"
	"github.com/kreyysyy/orbit/internal/metrics"
	"github.com/kreyysyy/orbit/internal/passes"
	"github.com/kreyysyy/orbit/internal/propagation"
	"github.com/kreyysyy/orbit/internal/tle"
)

// maxConcurrentTotal caps expensive requests across all clients.
const maxConcurrentTotal = 64

// Options holds the server's dependencies.
type Options struct {
	Auth               auth.Config
	Store              *tle.Store
	Propagator         *propagation.Propagator
	Pool               *propagation.WorkerPool
	Predictor          *passes.Predictor
	ParseOptions       []tle.Option
	TrustProxy         bool
	MaxConcurrentPerIP int
	Ready              func() error

	// Now overrides the clock used when a request omits its time.
	Now func() time.Time
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(logger, opts),
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler builds the routed handler with the middleware chain
// metrics -> logging -> auth -> tracing -> mux.
func NewHandler(logger *slog.Logger, opts Options) http.Handler {
	if opts.Store == nil {
		opts.Store = tle.NewStore()
	}
	if opts.Propagator == nil {
		opts.Propagator = propagation.NewPropagator(propagation.Config{}, logger)
	}
	if opts.Pool == nil {
		opts.Pool = propagation.NewWorkerPool(opts.Propagator.Config().Workers, opts.Propagator, logger)
	}
	if opts.Predictor == nil {
		opts.Predictor = passes.NewPredictor(opts.Propagator, 0, logger)
	}
	if opts.MaxConcurrentPerIP <= 0 {
		opts.MaxConcurrentPerIP = 4
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	h := &handlers{
		logger:    logger,
		store:     opts.Store,
		prop:      opts.Propagator,
		pool:      opts.Pool,
		predictor: opts.Predictor,
		parseOpts: opts.ParseOptions,
		now:       opts.Now,
	}
	limiter := newRequestLimiter(opts.MaxConcurrentPerIP, maxConcurrentTotal)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(opts.Ready))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/tle/parse", h.parseTLE)
	mux.HandleFunc("GET /api/v1/tle/metadata", h.metadata)
	mux.HandleFunc("GET /api/v1/satellites", h.satellite)
	mux.HandleFunc("POST /api/v1/propagate", h.propagate)
	mux.HandleFunc("GET /api/v1/propagate/{catalog_number}", h.propagateCatalog)
	mux.HandleFunc("POST /api/v1/groundtrack", limiter.limit(opts.TrustProxy, h.groundTrack))
	mux.HandleFunc("POST /api/v1/passes", limiter.limit(opts.TrustProxy, h.predictPasses))

	var handler http.Handler = mux
	handler = tracingMiddleware(handler)
	handler = auth.Middleware(opts.Auth)(handler)
	handler = loggingMiddleware(logger, opts.TrustProxy)(handler)
	handler = metrics.Middleware(handler)
	return handler
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

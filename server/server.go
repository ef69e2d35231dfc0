// Package server exposes the agent over HTTP: JSON endpoints for
// conversation management, a server-sent event stream for agent
// responses, health probes, and Prometheus metrics exposition.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/currentslabs/currents"
	"github.com/currentslabs/currents/metrics"
	"github.com/currentslabs/currents/store"
)

// shutdownGrace bounds how long in-flight requests get to drain after
// the serve context is cancelled.
const shutdownGrace = 5 * time.Second

// HealthProber reports whether a dependency is reachable. The trends
// MCP client implements it.
type HealthProber interface {
	Healthz(ctx context.Context) error
}

// Server is the HTTP front of the agent. It owns request validation,
// identity extraction, and the translation between agent events and
// server-sent event frames.
type Server struct {
	agent    *currents.Agent
	store    store.Store
	prober   HealthProber
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	origins  []string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access and error logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics sets the sink for request count and latency metrics. A
// nil sink disables recording.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithGatherer sets the registry the metrics endpoint exposes. Defaults
// to the process-wide default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithHealthProber sets the dependency probe reported as "mcp" in
// health payloads. Without one the service is reported as unknown.
func WithHealthProber(p HealthProber) Option {
	return func(s *Server) { s.prober = p }
}

// WithCORSOrigins sets the origins the CORS middleware allows.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// New creates a Server from the agent and its backing store.
func New(agent *currents.Agent, st store.Store, opts ...Option) *Server {
	s := &Server{
		agent:    agent,
		store:    st,
		logger:   slog.Default(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the full route table wrapped in the middleware
// chain: CORS outermost, then access logging, then the instrumented
// routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handle(mux, "POST /chat/conversations", s.handleCreateConversation)
	s.handle(mux, "GET /chat/conversations", s.handleListConversations)
	s.handle(mux, "GET /chat/conversations/{id}/messages", s.handleConversationMessages)
	s.handle(mux, "POST /chat/message", s.handleSendMessage)
	s.handle(mux, "GET /health", s.handleHealth)
	s.handle(mux, "GET /health/live", s.handleLive)
	s.handle(mux, "GET /health/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	var handler http.Handler = mux
	handler = s.requestLog(handler)
	handler = s.cors(handler)
	return handler
}

// handle registers an instrumented route. The path part of the route
// pattern labels the request metrics, keeping label cardinality bounded
// by the route table rather than by raw URLs.
func (s *Server) handle(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	path := pattern
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		path = pattern[i+1:]
	}
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		handler(wrapped, r)
		s.metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(wrapped.status), time.Since(start).Seconds())
	})
}

// Run serves the API on addr until ctx is cancelled, then drains
// in-flight requests for up to shutdownGrace before forcing the
// remaining connections closed.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("http server listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return srv.Close()
	}
	return nil
}

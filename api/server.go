// Package api exposes the graph builder over HTTP and serves the gRPC
// health protocol.
package api

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zero-day-ai/huntgraph/health"
	"github.com/zero-day-ai/huntgraph/pipeline"
	"github.com/zero-day-ai/huntgraph/queue"
)

// DefaultMaxBodyBytes caps request bodies when Options.MaxBodyBytes is unset.
const DefaultMaxBodyBytes = 8 << 20

// Options configures a Server.
type Options struct {
	// Builder builds graphs. The zero value is used if nil.
	Builder *pipeline.Builder

	// Queue receives build jobs. Nil disables POST /api/graph/jobs.
	Queue queue.Client

	// QueueName is the queue jobs are pushed to. Default: graph
	QueueName string

	// Checks are the dependency checks reported by GET /api/health.
	Checks map[string]health.Check

	// Gatherer is served on /metrics. Default: prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer

	// MaxBodyBytes caps request bodies. Default: 8 MiB
	MaxBodyBytes int64

	// Logger is the structured logger for request logs.
	Logger *slog.Logger
}

// Server provides the HTTP API of the graph service.
type Server struct {
	logger       *slog.Logger
	builder      *pipeline.Builder
	queue        queue.Client
	queueName    string
	checks       map[string]health.Check
	schema       *requestSchema
	maxBodyBytes int64
	router       *mux.Router
}

// NewServer creates the API server and its routes.
func NewServer(opts Options) (*Server, error) {
	schema, err := newRequestSchema()
	if err != nil {
		return nil, err
	}

	if opts.Builder == nil {
		opts.Builder = &pipeline.Builder{}
	}
	if opts.QueueName == "" {
		opts.QueueName = "graph"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	s := &Server{
		logger:       opts.Logger,
		builder:      opts.Builder,
		queue:        opts.Queue,
		queueName:    opts.QueueName,
		checks:       opts.Checks,
		schema:       schema,
		maxBodyBytes: opts.MaxBodyBytes,
		router:       mux.NewRouter(),
	}

	s.setupRoutes(opts.Gatherer)
	return s, nil
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	s.router.Use(s.requestLogger)

	s.router.HandleFunc("/api/graph", s.handleBuildGraph).Methods(http.MethodPost)
	s.router.HandleFunc("/api/graph/jobs", s.handleSubmitJob).Methods(http.MethodPost)
	s.router.HandleFunc("/api/graph/legend", s.handleLegend).Methods(http.MethodGet)
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

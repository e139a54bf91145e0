// Package api provides the HTTP API of scanbridge: the scan lifecycle,
// discovery and report endpoints used by the web frontend, plus health,
// version and metrics endpoints for operators.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/anstrom/scanbridge/docs/swagger" // registers the OpenAPI spec
	"github.com/anstrom/scanbridge/internal/api/handlers"
	"github.com/anstrom/scanbridge/internal/api/middleware"
	"github.com/anstrom/scanbridge/internal/config"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/metrics"
)

// Server timeout constants.
const (
	serverShutdownTimeout = 30 * time.Second
	readHeaderTimeout     = 10 * time.Second
)

const apiPrefix = "/api/v1"

// Server represents the API server.
type Server struct {
	httpServer *http.Server
	router     *mux.Router
	handlers   *handlers.HandlerManager
	config     config.APIConfig
	logger     *logging.Logger
	metrics    *metrics.PrometheusMetrics
}

// route is one frontend endpoint. Each is served at the root and under
// /api/v1.
type route struct {
	path    string
	method  string
	handler http.HandlerFunc
}

// New creates a new API server instance. pm may be nil, in which case
// /metrics is not served.
func New(cfg *config.Config, deps handlers.Dependencies, pm *metrics.PrometheusMetrics) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	deps.Logger = logger
	if deps.StreamInterval <= 0 {
		deps.StreamInterval = cfg.API.StreamInterval
	}
	if deps.Stats == nil && pm != nil {
		deps.Stats = pm
	}

	server := &Server{
		router:   mux.NewRouter(),
		handlers: handlers.New(deps),
		config:   cfg.API,
		logger:   logger.WithComponent("api"),
		metrics:  pm,
	}

	server.setupMiddleware(cfg.Logging.RequestLogging)
	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.API.ListenAddr, strconv.Itoa(cfg.API.Port)),
		Handler:           server.corsHandler(server.router),
		ReadTimeout:       cfg.API.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      cfg.API.WriteTimeout,
		IdleTimeout:       cfg.API.IdleTimeout,
	}

	return server, nil
}

// Start starts the API server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting API server",
		"address", s.httpServer.Addr,
		"read_timeout", s.httpServer.ReadTimeout,
		"write_timeout", s.httpServer.WriteTimeout)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("API server failed: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return err
	}
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	// Hijacked websocket connections are not tracked by Shutdown.
	if err := s.handlers.Close(); err != nil {
		s.logger.Warn("Failed to close status streams", "error", err)
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("API server shutdown error", "error", err)
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("API server stopped successfully")
	return nil
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	hm := s.handlers
	routes := []route{
		{"/", http.MethodGet, hm.Root},
		{"/test-connection", http.MethodGet, hm.TestConnection},
		{"/nmap-scan", http.MethodGet, hm.Discover},
		{"/scan", http.MethodPost, hm.StartScan},
		{"/stop-scan/{task_id}", http.MethodPost, hm.StopScan},
		{"/scan-status/{task_id}", http.MethodGet, hm.ScanStatus},
		{"/scan-results/{task_id}", http.MethodGet, hm.ScanResults},
		{"/download-report/{task_id}", http.MethodGet, hm.DownloadReport},
		{"/report-formats", http.MethodGet, hm.ReportFormats},
		{"/ws/scan-status/{task_id}", http.MethodGet, hm.StatusStream},
	}

	api := s.router.PathPrefix(apiPrefix).Subrouter()
	api.HandleFunc("/health", hm.Health).Methods(http.MethodGet)
	api.HandleFunc("/version", hm.Version).Methods(http.MethodGet)
	for _, rt := range routes {
		if rt.path != "/" {
			api.HandleFunc(rt.path, rt.handler).Methods(rt.method)
		}
	}

	for _, rt := range routes {
		s.router.HandleFunc(rt.path, rt.handler).Methods(rt.method)
	}

	if s.metrics != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	s.router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
	)).Methods(http.MethodGet)
	s.router.HandleFunc("/docs", redirectToSwagger).Methods(http.MethodGet)
}

// redirectToSwagger redirects to the Swagger UI.
func redirectToSwagger(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
}

// setupMiddleware configures middleware for the API server. Router
// middleware runs only for matched routes.
func (s *Server) setupMiddleware(requestLogging bool) {
	var rec metrics.Recorder = metrics.Nop{}
	if s.metrics != nil {
		rec = s.metrics
	}

	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Recovery(s.logger))
	if requestLogging {
		s.router.Use(middleware.Logging(s.logger))
	}
	s.router.Use(middleware.Metrics(rec))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.ContentType())
	s.router.Use(middleware.MaxBodySize(s.config.MaxRequestSize))
}

// corsHandler wraps the router so preflight requests are answered before
// route matching.
func (s *Server) corsHandler(next http.Handler) http.Handler {
	cors := s.config.CORS
	if len(cors.AllowedOrigins) == 0 {
		return next
	}

	methods := cors.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	}
	headers := cors.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Content-Type"}
	}

	return gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cors.AllowedOrigins),
		gorillahandlers.AllowedMethods(methods),
		gorillahandlers.AllowedHeaders(headers),
		gorillahandlers.AllowCredentials(),
	)(next)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// GetAddress returns the server address.
func (s *Server) GetAddress() string {
	return s.httpServer.Addr
}

// IsRunning checks if the server is accepting connections.
func (s *Server) IsRunning() bool {
	if s.httpServer == nil {
		return false
	}

	conn, err := net.DialTimeout("tcp", s.httpServer.Addr, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/anstrom/scanbridge/internal/logging"
)

// DatabasePinger defines the interface for database health checking.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// PendingCounter reports the number of outstanding delivery obligations.
type PendingCounter interface {
	Pending(ctx context.Context) (int, error)
}

// SystemStats exposes process statistics kept by the metrics collector.
type SystemStats interface {
	GetUptime() time.Duration
	GetLastUpdate() time.Time
}

// Timeout constants.
const (
	healthCheckTimeout = 5 * time.Second
)

// Status constants.
const (
	StatusHealthy       = "healthy"
	StatusUnhealthy     = "unhealthy"
	StatusNotConfigured = "not configured"
)

// HealthHandler handles the health, connectivity and version endpoints.
type HealthHandler struct {
	orch      Orchestrator
	database  DatabasePinger
	pending   PendingCounter
	stats     SystemStats
	streams   func() int
	logger    *logging.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. database and pending may
// be nil.
func NewHealthHandler(
	orch Orchestrator,
	database DatabasePinger,
	pending PendingCounter,
	logger *logging.Logger,
) *HealthHandler {
	return &HealthHandler{
		orch:      orch,
		database:  database,
		pending:   pending,
		logger:    logger.WithComponent("health_handler"),
		startTime: time.Now(),
	}
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status            string            `json:"status"`
	Timestamp         time.Time         `json:"timestamp"`
	Uptime            string            `json:"uptime"`
	Checks            map[string]string `json:"checks"`
	PendingDeliveries *int              `json:"pending_deliveries,omitempty"`
	StreamClients     int               `json:"stream_clients"`
	MetricsUpdatedAt  *time.Time        `json:"metrics_updated_at,omitempty"`
}

// VersionResponse represents version information.
type VersionResponse struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	BuildTime string    `json:"build_time"`
	GoVersion string    `json:"go_version"`
	Timestamp time.Time `json:"timestamp"`
}

// Root handles GET /, the frontend's liveness check.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "Backend is running!"})
}

// TestConnection handles GET /test-connection. Failures are reported in the
// body with status "error" and a 200, the way the frontend polls it.
func (h *HealthHandler) TestConnection(w http.ResponseWriter, r *http.Request) {
	info, err := h.orch.TestConnection(r.Context())
	if err != nil {
		h.logger.Warn("Engine connection test failed", "error", err)
		writeJSON(w, r, http.StatusOK, map[string]string{
			"status":  statusError,
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  statusSuccess,
		"version": info.Version,
	})
}

// Health performs a health check of the local dependencies. The engine is
// not contacted; /test-connection does that.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]string),
	}
	if h.stats != nil {
		response.Uptime = h.stats.GetUptime().String()
		if updated := h.stats.GetLastUpdate(); !updated.IsZero() {
			response.MetricsUpdatedAt = &updated
		}
	}
	if h.streams != nil {
		response.StreamClients = h.streams()
	}

	if h.database != nil {
		if err := h.database.Ping(ctx); err != nil {
			response.Status = StatusUnhealthy
			response.Checks["database"] = "failed: " + err.Error()
			h.logger.Warn("Database health check failed", "error", err)
		} else {
			response.Checks["database"] = "ok"
		}
	} else {
		response.Checks["database"] = StatusNotConfigured
	}

	if h.pending != nil {
		n, err := h.pending.Pending(ctx)
		if err != nil {
			response.Status = StatusUnhealthy
			response.Checks["delivery_store"] = "failed: " + err.Error()
		} else {
			response.Checks["delivery_store"] = "ok"
			response.PendingDeliveries = &n
		}
	} else {
		response.Checks["delivery_store"] = StatusNotConfigured
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, r, statusCode, response)
}

// Version provides version information.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, VersionResponse{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
		Timestamp: time.Now().UTC(),
	})
}

// Build information, set via SetBuildInfo from ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// SetBuildInfo sets build information (called by main package).
func SetBuildInfo(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
}

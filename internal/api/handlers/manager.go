// Package handlers provides HTTP request handlers for the scanbridge API.
// This package implements the REST and websocket endpoints the web
// frontend uses to drive scans, discovery and report downloads.
package handlers

import (
	"net/http"
	"time"

	"github.com/anstrom/scanbridge/internal/logging"
)

// Dependencies are the collaborators the handlers need. Database, Pending
// and Stats may be nil.
type Dependencies struct {
	Orchestrator   Orchestrator
	Database       DatabasePinger
	Pending        PendingCounter
	Stats          SystemStats
	Logger         *logging.Logger
	StreamInterval time.Duration
}

// HandlerManager manages all API handlers and their dependencies.
type HandlerManager struct {
	logger *logging.Logger

	// Individual handler groups
	health    *HealthHandler
	scan      *ScanHandler
	discovery *DiscoveryHandler
	report    *ReportHandler
	websocket *WebSocketHandler
}

// New creates a new handler manager with all handler groups initialized.
func New(deps Dependencies) *HandlerManager {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	ws := NewWebSocketHandler(deps.Orchestrator, logger, deps.StreamInterval)
	health := NewHealthHandler(deps.Orchestrator, deps.Database, deps.Pending, logger)
	health.stats = deps.Stats
	health.streams = ws.ConnectedClients

	return &HandlerManager{
		logger:    logger,
		health:    health,
		scan:      NewScanHandler(deps.Orchestrator, logger),
		discovery: NewDiscoveryHandler(deps.Orchestrator, logger),
		report:    NewReportHandler(deps.Orchestrator, logger),
		websocket: ws,
	}
}

// Root handles GET /.
func (hm *HandlerManager) Root(w http.ResponseWriter, r *http.Request) {
	hm.health.Root(w, r)
}

// Health handles GET /api/v1/health.
func (hm *HandlerManager) Health(w http.ResponseWriter, r *http.Request) {
	hm.health.Health(w, r)
}

// Version handles GET /api/v1/version.
func (hm *HandlerManager) Version(w http.ResponseWriter, r *http.Request) {
	hm.health.Version(w, r)
}

// TestConnection handles GET /test-connection.
func (hm *HandlerManager) TestConnection(w http.ResponseWriter, r *http.Request) {
	hm.health.TestConnection(w, r)
}

// Discover handles GET /nmap-scan.
func (hm *HandlerManager) Discover(w http.ResponseWriter, r *http.Request) {
	hm.discovery.Discover(w, r)
}

// StartScan handles POST /scan.
func (hm *HandlerManager) StartScan(w http.ResponseWriter, r *http.Request) {
	hm.scan.StartScan(w, r)
}

// StopScan handles POST /stop-scan/{task_id}.
func (hm *HandlerManager) StopScan(w http.ResponseWriter, r *http.Request) {
	hm.scan.StopScan(w, r)
}

// ScanStatus handles GET /scan-status/{task_id}.
func (hm *HandlerManager) ScanStatus(w http.ResponseWriter, r *http.Request) {
	hm.scan.Status(w, r)
}

// ScanResults handles GET /scan-results/{task_id}.
func (hm *HandlerManager) ScanResults(w http.ResponseWriter, r *http.Request) {
	hm.scan.Results(w, r)
}

// DownloadReport handles GET /download-report/{task_id}.
func (hm *HandlerManager) DownloadReport(w http.ResponseWriter, r *http.Request) {
	hm.report.Download(w, r)
}

// ReportFormats handles GET /report-formats.
func (hm *HandlerManager) ReportFormats(w http.ResponseWriter, r *http.Request) {
	hm.report.Formats(w, r)
}

// StatusStream handles GET /ws/scan-status/{task_id}.
func (hm *HandlerManager) StatusStream(w http.ResponseWriter, r *http.Request) {
	hm.websocket.ScanStatus(w, r)
}

// Close releases handler resources such as open status streams.
func (hm *HandlerManager) Close() error {
	return hm.websocket.Close()
}

// Package docs provides Swagger documentation for the Scanbridge API.
//
// This file holds the endpoint annotations. Run `swag init` to regenerate
// the OpenAPI specification in ./swagger.
//
//go:generate swag init -g swagger_docs.go -o ./swagger --parseDependency --parseInternal
package docs

import (
	"net/http"
	"time"
)

// @title Scanbridge API
// @version 1.0.0
// @description Drives a GMP vulnerability scan engine for the web frontend: single-host
// @description and network scans, live status, findings, PDF reports and nmap host discovery.
// @description
// @description Every route except /metrics is also served under /api/v1.
//
// @contact.name Scanbridge Support
// @contact.url https://github.com/anstrom/scanbridge
//
// @license.name MIT
// @license.url https://github.com/anstrom/scanbridge/blob/main/LICENSE
//
// @host localhost:8000
// @BasePath /

// ErrorResponse represents an error response
type ErrorResponse struct {
	Status    string    `json:"status" example:"error"`
	Message   string    `json:"message" example:"task_id is required"`
	Code      string    `json:"code,omitempty" example:"VALIDATION"`
	Stage     string    `json:"stage,omitempty" example:"scanner_selection"`
	TaskID    string    `json:"task_id,omitempty" example:"5d2c6b0e-0a51-4c3b-9f43-6f0f1c1e2a77"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty" example:"a3f1c2d4-7b8e-4f60-9d1a-2b3c4d5e6f70"`
}

// MessageResponse represents a plain status message
type MessageResponse struct {
	Status  string `json:"status,omitempty" example:"success"`
	Message string `json:"message" example:"Backend is running!"`
}

// ConnectionResponse represents the engine connectivity check
type ConnectionResponse struct {
	Status  string `json:"status" example:"success"`
	Version string `json:"version,omitempty" example:"22.4"`
	Message string `json:"message,omitempty"`
}

// ScanRequest represents a request to start a scan
type ScanRequest struct {
	Target   string `json:"target" example:"192.168.1.10"`
	Email    string `json:"email,omitempty" example:"secops@example.com"`
	ScanType string `json:"scan_type,omitempty" example:"single" enums:"single,network"`
}

// ScanStartedResponse represents a started scan
type ScanStartedResponse struct {
	Target  string   `json:"target" example:"192.168.1.10"`
	TaskID  string   `json:"task_id" example:"5d2c6b0e-0a51-4c3b-9f43-6f0f1c1e2a77"`
	Status  string   `json:"status" example:"started"`
	Message string   `json:"message" example:"Scan started for 192.168.1.10"`
	Hosts   []string `json:"hosts,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// TaskStatusResponse represents the canonical status of a task
type TaskStatusResponse struct {
	TaskID  string `json:"task_id" example:"5d2c6b0e-0a51-4c3b-9f43-6f0f1c1e2a77"`
	Status  string `json:"status" example:"Running" enums:"Running,Stopped,Done,Error"`
	Message string `json:"message,omitempty"`
}

// Finding represents one vulnerability result
type Finding struct {
	Name        string   `json:"name" example:"OpenSSH Obsolete Version Detection"`
	Severity    float64  `json:"severity" example:"7.5"`
	QoD         int      `json:"qod" example:"80"`
	Host        string   `json:"host" example:"192.168.1.10"`
	Port        string   `json:"port" example:"22/tcp"`
	Created     string   `json:"created" example:"2024-05-01T12:00:00Z"`
	Description string   `json:"description"`
	ThreatLevel *string  `json:"threat_level,omitempty" example:"High"`
	CVSSBase    *float64 `json:"cvss_base,omitempty" example:"7.5"`
}

// ScanResultsResponse represents the findings of a task's report
type ScanResultsResponse struct {
	TaskID          string    `json:"task_id" example:"5d2c6b0e-0a51-4c3b-9f43-6f0f1c1e2a77"`
	Status          string    `json:"status" example:"success"`
	Count           int       `json:"count" example:"1"`
	Vulnerabilities []Finding `json:"vulnerabilities"`
}

// ReportFormat represents a report format installed on the engine
type ReportFormat struct {
	ID        string `json:"id" example:"c402cc3e-b531-11e1-9163-406186ea4fc5"`
	Name      string `json:"name" example:"PDF"`
	Extension string `json:"extension" example:"pdf"`
	Summary   string `json:"summary"`
}

// ReportFormatsResponse represents the installed report formats
type ReportFormatsResponse struct {
	Formats []ReportFormat `json:"formats"`
}

// DiscoveryResponse represents the live hosts of a network
type DiscoveryResponse struct {
	Status     string   `json:"status" example:"success"`
	Network    string   `json:"network" example:"192.168.1.0/24"`
	HostsFound int      `json:"hosts_found" example:"2"`
	IPList     string   `json:"ip_list" example:"192.168.1.1,192.168.1.10"`
	Hosts      []string `json:"hosts"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status            string            `json:"status" example:"healthy"`
	Timestamp         time.Time         `json:"timestamp"`
	Uptime            string            `json:"uptime" example:"2h30m45s"`
	Checks            map[string]string `json:"checks"`
	PendingDeliveries *int              `json:"pending_deliveries,omitempty" example:"3"`
	StreamClients     int               `json:"stream_clients" example:"1"`
	MetricsUpdatedAt  *time.Time        `json:"metrics_updated_at,omitempty"`
}

// VersionResponse represents version information
type VersionResponse struct {
	Version   string    `json:"version" example:"1.0.0"`
	Commit    string    `json:"commit" example:"abc1234"`
	BuildTime string    `json:"build_time" example:"2024-01-01T00:00:00Z"`
	GoVersion string    `json:"go_version" example:"go1.26.2"`
	Timestamp time.Time `json:"timestamp"`
}

// Root godoc
// @Summary Liveness check
// @Tags System
// @Produce json
// @Success 200 {object} MessageResponse
// @Router / [get]
// @ID getRoot
func Root(_ http.ResponseWriter, _ *http.Request) {}

// TestConnection godoc
// @Summary Engine connectivity
// @Description Connects and authenticates to the scan engine and returns its protocol version.
// @Description Failures are reported in the body with status "error".
// @Tags System
// @Produce json
// @Success 200 {object} ConnectionResponse
// @Router /test-connection [get]
// @ID testConnection
func TestConnection(_ http.ResponseWriter, _ *http.Request) {}

// Discover godoc
// @Summary Discover live hosts
// @Description Runs three nmap discovery passes over a network and returns the union of live hosts
// @Tags Discovery
// @Produce json
// @Param ip_range query string true "Network in CIDR notation, at most 256 addresses" example(192.168.1.0/24)
// @Success 200 {object} DiscoveryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /nmap-scan [get]
// @ID discoverHosts
func Discover(_ http.ResponseWriter, _ *http.Request) {}

// StartScan godoc
// @Summary Start scan
// @Description Resolves the target, creates a task and starts it. With an email, the PDF report
// @Description is mailed once the task is seen Done.
// @Tags Scans
// @Accept json
// @Produce json
// @Param request body ScanRequest true "Scan request"
// @Success 200 {object} ScanStartedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /scan [post]
// @ID startScan
func StartScan(_ http.ResponseWriter, _ *http.Request) {}

// StopScan godoc
// @Summary Stop scan
// @Tags Scans
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /stop-scan/{task_id} [post]
// @ID stopScan
func StopScan(_ http.ResponseWriter, _ *http.Request) {}

// ScanStatus godoc
// @Summary Scan status
// @Description Returns the canonical task status. The first query that sees the task Done
// @Description starts the report delivery, if one was requested.
// @Tags Scans
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} TaskStatusResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /scan-status/{task_id} [get]
// @ID getScanStatus
func ScanStatus(_ http.ResponseWriter, _ *http.Request) {}

// ScanResults godoc
// @Summary Scan findings
// @Tags Scans
// @Produce json
// @Param task_id path string true "Task ID"
// @Success 200 {object} ScanResultsResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /scan-results/{task_id} [get]
// @ID getScanResults
func ScanResults(_ http.ResponseWriter, _ *http.Request) {}

// DownloadReport godoc
// @Summary Download PDF report
// @Tags Reports
// @Produce application/pdf
// @Param task_id path string true "Task ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /download-report/{task_id} [get]
// @ID downloadReport
func DownloadReport(_ http.ResponseWriter, _ *http.Request) {}

// ReportFormats godoc
// @Summary Report formats
// @Tags Reports
// @Produce json
// @Success 200 {object} ReportFormatsResponse
// @Failure 500 {object} ErrorResponse
// @Router /report-formats [get]
// @ID listReportFormats
func ReportFormats(_ http.ResponseWriter, _ *http.Request) {}

// StatusStream godoc
// @Summary Stream scan status
// @Description Upgrades to a websocket and pushes TaskStatusResponse messages until the task
// @Description reaches a terminal status.
// @Tags Scans
// @Param task_id path string true "Task ID"
// @Success 101 {object} TaskStatusResponse
// @Router /ws/scan-status/{task_id} [get]
// @ID streamScanStatus
func StatusStream(_ http.ResponseWriter, _ *http.Request) {}

// Health godoc
// @Summary Health check
// @Description Returns service health including the database and delivery store
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Success 503 {object} HealthResponse
// @Router /api/v1/health [get]
// @ID getHealth
func Health(_ http.ResponseWriter, _ *http.Request) {}

// Version godoc
// @Summary Version information
// @Tags System
// @Produce json
// @Success 200 {object} VersionResponse
// @Router /api/v1/version [get]
// @ID getVersion
func Version(_ http.ResponseWriter, _ *http.Request) {}

// Metrics godoc
// @Summary Application metrics
// @Description Returns Prometheus metrics for monitoring
// @Tags System
// @Produce text/plain
// @Success 200 {string} string
// @Failure 404 {object} ErrorResponse
// @Router /metrics [get]
// @ID getMetrics
func Metrics(_ http.ResponseWriter, _ *http.Request) {}

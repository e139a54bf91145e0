package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/anstrom/scanbridge/internal/api/middleware"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/normalize"
	"github.com/anstrom/scanbridge/internal/orchestrator"
	"github.com/anstrom/scanbridge/internal/report"
	"github.com/anstrom/scanbridge/internal/targets"
)

// ScanHandler handles the scan lifecycle endpoints.
type ScanHandler struct {
	orch   Orchestrator
	logger *logging.Logger
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(orch Orchestrator, logger *logging.Logger) *ScanHandler {
	return &ScanHandler{
		orch:   orch,
		logger: logger.WithComponent("scan_handler"),
	}
}

// ScanRequest is the body of POST /scan.
type ScanRequest struct {
	Target   string `json:"target" validate:"required,max=64"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	ScanType string `json:"scan_type,omitempty" validate:"omitempty,oneof=single network"`
}

// ScanStartedResponse is returned when a scan was started.
type ScanStartedResponse struct {
	Target  string   `json:"target"`
	TaskID  string   `json:"task_id"`
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Hosts   []string `json:"hosts,omitempty"`
	Warning string   `json:"warning,omitempty"`
}

// TaskStatusResponse is returned by GET /scan-status/{task_id}.
type TaskStatusResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ScanResultsResponse is returned by GET /scan-results/{task_id}.
type ScanResultsResponse struct {
	TaskID          string           `json:"task_id"`
	Status          string           `json:"status"`
	Count           int              `json:"count"`
	Vulnerabilities []report.Finding `json:"vulnerabilities"`
}

// StartScan handles POST /scan.
func (h *ScanHandler) StartScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := parseJSON(r, &req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorFields(r, err, nil))
		return
	}
	req.Target = strings.TrimSpace(req.Target)
	req.ScanType = strings.ToLower(strings.TrimSpace(req.ScanType))
	if err := validateStruct(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorFields(r, err, map[string]interface{}{"target": req.Target}))
		return
	}

	scanType, err := targets.ParseScanType(req.ScanType)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorFields(r, err, map[string]interface{}{"target": req.Target}))
		return
	}

	h.logger.Info("Starting scan",
		"request_id", middleware.GetRequestID(r),
		"target", req.Target,
		"scan_type", scanType,
		"email", req.Email != "")

	res, err := h.orch.StartScan(r.Context(), orchestrator.StartRequest{
		Target:   req.Target,
		Email:    req.Email,
		ScanType: scanType,
	})
	if err != nil {
		h.logger.Error("Failed to start scan",
			"request_id", middleware.GetRequestID(r),
			"target", req.Target,
			"error", err)
		writeScanError(w, r, err, map[string]interface{}{"target": req.Target})
		return
	}

	writeJSON(w, r, http.StatusOK, ScanStartedResponse{
		Target:  res.Target,
		TaskID:  res.TaskID,
		Status:  statusStarted,
		Message: fmt.Sprintf("Scan started successfully for %s. Task ID: %s", res.Target, res.TaskID),
		Hosts:   res.Hosts,
		Warning: res.Warning,
	})
}

// StopScan handles POST /stop-scan/{task_id}.
func (h *ScanHandler) StopScan(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.orch.StopScan(r.Context(), taskID); err != nil {
		h.logger.Error("Failed to stop scan",
			"request_id", middleware.GetRequestID(r),
			"task_id", taskID,
			"error", err)
		writeScanError(w, r, err, map[string]interface{}{
			"message": fmt.Sprintf("Failed to stop scan/task: %v", err),
		})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  statusSuccess,
		"message": fmt.Sprintf("Scan/task %s stopped.", taskID),
	})
}

// Status handles GET /scan-status/{task_id}. Engine refusals come back as
// status "Error" with a message, like any other status.
func (h *ScanHandler) Status(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.orch.Status(r.Context(), taskID)
	if err != nil {
		writeScanError(w, r, err, map[string]interface{}{
			"task_id": taskID,
			"status":  string(normalize.StatusError),
		})
		return
	}

	writeJSON(w, r, http.StatusOK, TaskStatusResponse{
		TaskID:  res.TaskID,
		Status:  string(res.Status),
		Message: res.Message,
	})
}

// Results handles GET /scan-results/{task_id}.
func (h *ScanHandler) Results(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.orch.Results(r.Context(), taskID)
	if err != nil {
		h.logger.Error("Failed to get scan results",
			"request_id", middleware.GetRequestID(r),
			"task_id", taskID,
			"error", err)
		writeScanError(w, r, err, map[string]interface{}{"task_id": taskID})
		return
	}

	writeJSON(w, r, http.StatusOK, ScanResultsResponse{
		TaskID:          res.TaskID,
		Status:          string(normalize.StatusDone),
		Count:           len(res.Findings),
		Vulnerabilities: res.Findings,
	})
}

func writeScanError(w http.ResponseWriter, r *http.Request, err error, extra map[string]interface{}) {
	writeJSON(w, r, errors.HTTPStatus(err), errorFields(r, err, extra))
}

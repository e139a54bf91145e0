package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/anstrom/scanbridge/internal/api/middleware"
	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/orchestrator"
)

// ReportHandler serves rendered reports and the installed report formats.
type ReportHandler struct {
	orch   Orchestrator
	logger *logging.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(orch Orchestrator, logger *logging.Logger) *ReportHandler {
	return &ReportHandler{
		orch:   orch,
		logger: logger.WithComponent("report_handler"),
	}
}

// ReportFormatsResponse is returned by GET /report-formats.
type ReportFormatsResponse struct {
	Formats []orchestrator.ReportFormat `json:"formats"`
}

// Download handles GET /download-report/{task_id}.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pdf, err := h.orch.DownloadReport(r.Context(), taskID)
	if err != nil {
		if errors.IsNotFound(err) {
			writeJSON(w, r, http.StatusNotFound, errorFields(r, err, map[string]interface{}{
				"task_id": taskID,
				"message": "No report found for this task",
			}))
			return
		}
		if errors.IsCode(err, errors.CodeEmptyReport) {
			writeJSON(w, r, http.StatusNotFound, errorFields(r, err, map[string]interface{}{
				"task_id": taskID,
				"message": "Report is empty or tools not installed",
			}))
			return
		}
		h.logger.Error("Failed to download report",
			"request_id", middleware.GetRequestID(r),
			"task_id", taskID,
			"error", err)
		writeJSON(w, r, http.StatusInternalServerError, errorFields(r, err, map[string]interface{}{"task_id": taskID}))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report_%s.pdf", taskID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.logger.Error("Failed to write report",
			"request_id", middleware.GetRequestID(r),
			"task_id", taskID,
			"error", err)
	}
}

// Formats handles GET /report-formats.
func (h *ReportHandler) Formats(w http.ResponseWriter, r *http.Request) {
	formats, err := h.orch.ReportFormats(r.Context())
	if err != nil {
		h.logger.Error("Failed to list report formats",
			"request_id", middleware.GetRequestID(r),
			"error", err)
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ReportFormatsResponse{Formats: formats})
}

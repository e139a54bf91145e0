package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/orchestrator"
)

func TestReportHandler_Download(t *testing.T) {
	pdf := []byte("%PDF-1.4\n%fake report\n")

	orch := new(MockOrchestrator)
	orch.On("DownloadReport", mock.Anything, "task-1").Return(pdf, nil)

	handler := NewReportHandler(orch, createTestLogger())
	req := withTaskID(httptest.NewRequest(http.MethodGet, "/download-report/task-1", http.NoBody), "task-1")
	w := httptest.NewRecorder()

	handler.Download(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=report_task-1.pdf", w.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(len(pdf)), w.Header().Get("Content-Length"))
	assert.Equal(t, pdf, w.Body.Bytes())
}

func TestReportHandler_DownloadErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedMsg  string
	}{
		{
			name: "task has no report",
			err: &orchestrator.StageError{
				Stage: orchestrator.StageReportLookup,
				Err:   errors.NewEngineError(errors.CodeNoReportID, "get_task", "task has no report"),
			},
			expectedCode: http.StatusNotFound,
			expectedMsg:  "No report found for this task",
		},
		{
			name:         "unknown task",
			err:          errors.NewEngineError(errors.CodeNotFound, "get_task", "404 Failed to find task"),
			expectedCode: http.StatusNotFound,
			expectedMsg:  "No report found for this task",
		},
		{
			name: "undecodable payload",
			err: &orchestrator.StageError{
				Stage: orchestrator.StageReportFetch,
				Err:   errors.WrapEngineError(errors.CodeDecodeFailed, "get_report", "invalid base64 payload", assert.AnError),
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name: "empty payload",
			err: &orchestrator.StageError{
				Stage: orchestrator.StageReportFetch,
				Err:   errors.NewEngineError(errors.CodeEmptyReport, "get_report", "report has no content"),
			},
			expectedCode: http.StatusNotFound,
			expectedMsg:  "Report is empty or tools not installed",
		},
		{
			name: "response without report",
			err: &orchestrator.StageError{
				Stage: orchestrator.StageReportFetch,
				Err:   errors.NewEngineError(errors.CodeMalformedResponse, "get_reports", "no report in response"),
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := new(MockOrchestrator)
			orch.On("DownloadReport", mock.Anything, "task-1").Return(nil, tt.err)

			handler := NewReportHandler(orch, createTestLogger())
			req := withTaskID(httptest.NewRequest(http.MethodGet, "/download-report/task-1", http.NoBody), "task-1")
			w := httptest.NewRecorder()

			handler.Download(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			body := decodeBody(t, w)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "task-1", body["task_id"])
			if tt.expectedMsg != "" {
				assert.Equal(t, tt.expectedMsg, body["message"])
			}
		})
	}
}

func TestReportHandler_Formats(t *testing.T) {
	t.Run("lists formats", func(t *testing.T) {
		orch := new(MockOrchestrator)
		orch.On("ReportFormats", mock.Anything).Return([]orchestrator.ReportFormat{
			{ID: "c402cc3e-b531-11e1-9163-406186ea4fc5", Name: "PDF", Extension: "pdf", Summary: "Portable Document Format report."},
			{ID: "a994b278-1f62-11e1-96ac-406186ea4fc5", Name: "XML", Extension: "xml"},
		}, nil)

		handler := NewReportHandler(orch, createTestLogger())
		w := httptest.NewRecorder()

		handler.Formats(w, httptest.NewRequest(http.MethodGet, "/report-formats", http.NoBody))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		formats, ok := body["formats"].([]interface{})
		require.True(t, ok)
		require.Len(t, formats, 2)
		assert.Equal(t, "PDF", formats[0].(map[string]interface{})["name"])
		assert.Equal(t, "xml", formats[1].(map[string]interface{})["extension"])
	})

	t.Run("engine unreachable", func(t *testing.T) {
		orch := new(MockOrchestrator)
		orch.On("ReportFormats", mock.Anything).Return(nil,
			errors.NewEngineError(errors.CodeAuthFailure, "authenticate", "authentication failed"))

		handler := NewReportHandler(orch, createTestLogger())
		w := httptest.NewRecorder()

		handler.Formats(w, httptest.NewRequest(http.MethodGet, "/report-formats", http.NoBody))

		assert.Equal(t, http.StatusBadGateway, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, string(errors.CodeAuthFailure), body["code"])
	})
}

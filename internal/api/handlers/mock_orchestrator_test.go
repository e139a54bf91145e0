package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/discovery"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/orchestrator"
)

// MockOrchestrator is a mock implementation of the Orchestrator interface.
type MockOrchestrator struct {
	mock.Mock
}

var _ Orchestrator = (*MockOrchestrator)(nil)

func (m *MockOrchestrator) StartScan(ctx context.Context, req orchestrator.StartRequest) (*orchestrator.StartResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*orchestrator.StartResult)
	return res, args.Error(1)
}

func (m *MockOrchestrator) StopScan(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}

func (m *MockOrchestrator) Status(ctx context.Context, taskID string) (*orchestrator.StatusResult, error) {
	args := m.Called(ctx, taskID)
	res, _ := args.Get(0).(*orchestrator.StatusResult)
	return res, args.Error(1)
}

func (m *MockOrchestrator) Results(ctx context.Context, taskID string) (*orchestrator.Results, error) {
	args := m.Called(ctx, taskID)
	res, _ := args.Get(0).(*orchestrator.Results)
	return res, args.Error(1)
}

func (m *MockOrchestrator) DownloadReport(ctx context.Context, taskID string) ([]byte, error) {
	args := m.Called(ctx, taskID)
	pdf, _ := args.Get(0).([]byte)
	return pdf, args.Error(1)
}

func (m *MockOrchestrator) ReportFormats(ctx context.Context) ([]orchestrator.ReportFormat, error) {
	args := m.Called(ctx)
	formats, _ := args.Get(0).([]orchestrator.ReportFormat)
	return formats, args.Error(1)
}

func (m *MockOrchestrator) Discover(ctx context.Context, network string) (*discovery.Result, error) {
	args := m.Called(ctx, network)
	res, _ := args.Get(0).(*discovery.Result)
	return res, args.Error(1)
}

func (m *MockOrchestrator) TestConnection(ctx context.Context) (*orchestrator.EngineInfo, error) {
	args := m.Called(ctx)
	info, _ := args.Get(0).(*orchestrator.EngineInfo)
	return info, args.Error(1)
}

func createTestLogger() *logging.Logger {
	return &logging.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

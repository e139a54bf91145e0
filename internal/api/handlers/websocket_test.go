package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/scanbridge/internal/errors"
	"github.com/anstrom/scanbridge/internal/normalize"
	"github.com/anstrom/scanbridge/internal/orchestrator"
)

func newStreamServer(t *testing.T, orch Orchestrator) (*WebSocketHandler, *httptest.Server) {
	t.Helper()
	handler := NewWebSocketHandler(orch, createTestLogger(), 10*time.Millisecond)
	router := mux.NewRouter()
	router.HandleFunc("/ws/scan-status/{task_id}", handler.ScanStatus)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return handler, srv
}

func dialStream(t *testing.T, srv *httptest.Server, taskID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/scan-status/" + taskID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) StatusFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame StatusFrame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestWebSocketHandler_StreamsUntilTerminal(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("Status", mock.Anything, "task-1").
		Return(&orchestrator.StatusResult{TaskID: "task-1", Status: normalize.StatusRunning}, nil).Twice()
	orch.On("Status", mock.Anything, "task-1").
		Return(&orchestrator.StatusResult{TaskID: "task-1", Status: normalize.StatusDone}, nil).Once()

	_, srv := newStreamServer(t, orch)
	conn := dialStream(t, srv, "task-1")

	assert.Equal(t, "Running", readFrame(t, conn).Status)
	assert.Equal(t, "Running", readFrame(t, conn).Status)
	last := readFrame(t, conn)
	assert.Equal(t, "task-1", last.TaskID)
	assert.Equal(t, "Done", last.Status)
	assert.False(t, last.Timestamp.IsZero())

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "expected normal close, got %v", err)
	orch.AssertExpectations(t)
}

func TestWebSocketHandler_EngineRefusalEndsStream(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("Status", mock.Anything, "missing").Return(&orchestrator.StatusResult{
		TaskID:  "missing",
		Status:  normalize.StatusError,
		Message: "Task not found or invalid response: 404 Failed to find task",
	}, nil).Once()

	_, srv := newStreamServer(t, orch)
	conn := dialStream(t, srv, "missing")

	frame := readFrame(t, conn)
	assert.Equal(t, "Error", frame.Status)
	assert.Equal(t, "Task not found or invalid response: 404 Failed to find task", frame.Message)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestWebSocketHandler_QueryFailureEndsStream(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("Status", mock.Anything, "task-1").Return(nil,
		errors.NewEngineError(errors.CodeConnectionFailure, "connect", "connection refused")).Once()

	_, srv := newStreamServer(t, orch)
	conn := dialStream(t, srv, "task-1")

	frame := readFrame(t, conn)
	assert.Equal(t, "Error", frame.Status)
	assert.Contains(t, frame.Message, "connection refused")
}

func TestWebSocketHandler_ClientClose(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("Status", mock.Anything, "task-1").
		Return(&orchestrator.StatusResult{TaskID: "task-1", Status: normalize.StatusRunning}, nil)

	handler, srv := newStreamServer(t, orch)
	conn := dialStream(t, srv, "task-1")

	readFrame(t, conn)
	assert.Eventually(t, func() bool { return handler.ConnectedClients() == 1 }, time.Second, 5*time.Millisecond)

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	require.NoError(t, conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)))

	assert.Eventually(t, func() bool { return handler.ConnectedClients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketHandler_PlainHTTPRejected(t *testing.T) {
	orch := new(MockOrchestrator)
	_, srv := newStreamServer(t, orch)

	resp, err := http.Get(srv.URL + "/ws/scan-status/task-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	orch.AssertNotCalled(t, "Status", mock.Anything, mock.Anything)
}

func TestWebSocketHandler_Close(t *testing.T) {
	orch := new(MockOrchestrator)
	orch.On("Status", mock.Anything, "task-1").
		Return(&orchestrator.StatusResult{TaskID: "task-1", Status: normalize.StatusRunning}, nil)

	handler, srv := newStreamServer(t, orch)
	conn := dialStream(t, srv, "task-1")
	readFrame(t, conn)

	require.NoError(t, handler.Close())
	assert.Equal(t, 0, handler.ConnectedClients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

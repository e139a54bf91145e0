// Package handlers provides HTTP request handlers for the scanbridge API.
// This file implements the websocket status stream for a single task.
package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anstrom/scanbridge/internal/api/middleware"
	"github.com/anstrom/scanbridge/internal/logging"
	"github.com/anstrom/scanbridge/internal/normalize"
)

const (
	// WebSocket configuration constants.
	writeWait       = 10 * time.Second                                   // Time allowed to write a message to the peer
	pongWait        = 60 * time.Second                                   // Time to read next pong message from peer
	pingPeriodRatio = 0.9                                                // Ratio of pongWait for pingPeriod
	pingPeriod      = time.Duration(float64(pongWait) * pingPeriodRatio) // Send pings to peer (must be < pongWait)
	maxMessageSize  = 512                                                // Maximum message size allowed from peer

	defaultStreamInterval = 10 * time.Second
)

// StatusFrame is one message of the status stream.
type StatusFrame struct {
	TaskID    string    `json:"task_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WebSocketHandler streams task status over websocket connections.
type WebSocketHandler struct {
	orch     Orchestrator
	logger   *logging.Logger
	interval time.Duration
	upgrader websocket.Upgrader

	mutex sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewWebSocketHandler creates a status stream handler polling the engine
// every interval.
func NewWebSocketHandler(orch Orchestrator, logger *logging.Logger, interval time.Duration) *WebSocketHandler {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &WebSocketHandler{
		orch:     orch,
		logger:   logger.WithComponent("websocket_handler"),
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// CORS is enforced by the router.
				return true
			},
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ScanStatus handles GET /ws/scan-status/{task_id}. A frame is sent
// immediately and then every interval until the task reaches a terminal
// status, the status query fails, or the client goes away.
func (h *WebSocketHandler) ScanStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDFromPath(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	requestID := middleware.GetRequestID(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied with an HTTP error.
		h.logger.Warn("WebSocket upgrade failed", "request_id", requestID, "error", err)
		return
	}
	h.track(conn)
	defer h.untrack(conn)

	h.logger.Info("Status stream opened", "request_id", requestID, "task_id", taskID, "remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.readPump(conn, cancel, requestID)

	h.stream(ctx, conn, taskID, requestID)
}

// stream is the only writer on conn.
func (h *WebSocketHandler) stream(ctx context.Context, conn *websocket.Conn, taskID, requestID string) {
	poll := time.NewTicker(h.interval)
	defer poll.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		if done := h.sendStatus(ctx, conn, taskID, requestID); done {
			h.closeNormally(conn, requestID)
			return
		}

	wait:
		for {
			select {
			case <-ctx.Done():
				h.logger.Debug("Status stream closed by client", "request_id", requestID, "task_id", taskID)
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					h.logger.Debug("Ping failed, closing connection", "request_id", requestID, "error", err)
					return
				}
			case <-poll.C:
				break wait
			}
		}
	}
}

// sendStatus queries the task and writes one frame. It reports whether the
// stream is finished.
func (h *WebSocketHandler) sendStatus(ctx context.Context, conn *websocket.Conn, taskID, requestID string) bool {
	frame := StatusFrame{TaskID: taskID, Timestamp: time.Now().UTC()}
	terminal := false

	res, err := h.orch.Status(ctx, taskID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		h.logger.Warn("Status query failed on stream", "request_id", requestID, "task_id", taskID, "error", err)
		frame.Status = string(normalize.StatusError)
		frame.Message = err.Error()
		terminal = true
	} else {
		frame.Status = string(res.Status)
		frame.Message = res.Message
		terminal = res.Status.Terminal()
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		h.logger.Error("Failed to set write deadline", "request_id", requestID, "error", err)
		return true
	}
	if err := conn.WriteJSON(frame); err != nil {
		h.logger.Debug("Write failed, closing connection", "request_id", requestID, "error", err)
		return true
	}
	return terminal
}

func (h *WebSocketHandler) closeNormally(conn *websocket.Conn, requestID string) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream finished")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		h.logger.Debug("Failed to send close frame", "request_id", requestID, "error", err)
	}
}

// readPump drains the connection so pongs and close frames are processed.
// Clients are not expected to send data.
func (h *WebSocketHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc, requestID string) {
	defer cancel()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Error("Failed to set read deadline", "request_id", requestID, "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket unexpected close", "request_id", requestID, "error", err)
			}
			return
		}
	}
}

func (h *WebSocketHandler) track(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.conns[conn] = struct{}{}
}

func (h *WebSocketHandler) untrack(conn *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mutex.Unlock()

	if ok {
		if err := conn.Close(); err != nil {
			h.logger.Debug("Error closing connection", "error", err)
		}
	}
}

// ConnectedClients returns the number of open status streams.
func (h *WebSocketHandler) ConnectedClients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.conns)
}

// Close closes every open stream.
func (h *WebSocketHandler) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn := range h.conns {
		if err := conn.Close(); err != nil {
			h.logger.Error("Error closing status stream", "error", err)
		}
	}
	h.conns = make(map[*websocket.Conn]struct{})

	h.logger.Info("WebSocket handler closed")
	return nil
}

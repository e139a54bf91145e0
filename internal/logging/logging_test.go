package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer, format LogFormat) *Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	var handler slog.Handler = slog.NewTextHandler(buf, opts)
	if format == FormatJSON {
		handler = slog.NewJSONHandler(buf, opts)
	}
	return &Logger{Logger: slog.New(handler), config: Config{Level: LevelDebug, Format: format}}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.False(t, cfg.AddSource)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"stdout text", Config{Level: LevelInfo, Format: FormatText, Output: "stdout"}},
		{"stderr json", Config{Level: LevelDebug, Format: FormatJSON, Output: "stderr"}},
		{"unknown level falls back", Config{Level: "verbose", Format: FormatText, Output: "stdout"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "scanbridge.log")

	logger, err := New(Config{Level: LevelInfo, Format: FormatJSON, Output: path})
	require.NoError(t, err)
	logger.Info("engine connected", "host", "gvm.local")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(logFilePerm), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "engine connected")
}

func TestDomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, FormatJSON)
	cause := errors.New("tls handshake failed")

	logger.InfoEngine("task created", "create_task", "task_id", "t-1")
	logger.ErrorEngine("authentication failed", "authenticate", cause)
	logger.InfoDiscovery("pass finished", "10.0.0.0/24", "pass", 2)
	logger.ErrorDelivery("mail failed", "t-1", cause)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "engine", first["component"])
	assert.Equal(t, "create_task", first["operation"])
	assert.Equal(t, "t-1", first["task_id"])

	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[3]), &last))
	assert.Equal(t, "delivery", last["component"])
	assert.Equal(t, "tls handshake failed", last["error"])
}

func TestWithMethodsChain(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, FormatText)

	logger.WithComponent("orchestrator").WithTaskID("abc").WithTarget("10.0.0.5").
		WithError(errors.New("refused")).Info("status queried")

	out := buf.String()
	assert.Contains(t, out, "error=refused")
	assert.Contains(t, out, "component=orchestrator")
	assert.Contains(t, out, "task_id=abc")
	assert.Contains(t, out, "target=10.0.0.5")
}

func TestSetAndGetDefault(t *testing.T) {
	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer
	SetDefault(newBufferLogger(&buf, FormatText))

	Info("global info", "task_id", "t-7")
	Error("global error", "network", "192.168.1.0/24")

	out := buf.String()
	assert.Contains(t, out, "global info")
	assert.Contains(t, out, "task_id=t-7")
	assert.Contains(t, out, "global error")
	assert.Contains(t, out, "network=192.168.1.0/24")
}

func TestRedactsCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redact.log")

	logger, err := New(Config{Level: LevelDebug, Format: FormatJSON, Output: path})
	require.NoError(t, err)
	logger.Debug("engine config", "username", "admin", "password", "hunter2", "Secret_Key", "s3cr3t")
	logger.Debug("no password set", "password", "")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "admin", entry["username"])
	assert.Equal(t, "[REDACTED]", entry["password"])
	assert.Equal(t, "[REDACTED]", entry["Secret_Key"])
	assert.NotContains(t, string(data), "hunter2")

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.Equal(t, "", entry["password"])
}

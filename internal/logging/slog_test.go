package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNew_WritesToConsoleAndFile(t *testing.T) {
	var console, file bytes.Buffer
	logger := New(&console, &file, "info")
	logger.Info("marker placed", "type", "checkpoint")

	assert.Contains(t, console.String(), "marker placed")
	assert.Contains(t, file.String(), "type=checkpoint")
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, nil, "debug")
	logger.Debug("debug msg")
	assert.Contains(t, buf.String(), "debug msg")

	buf.Reset()
	logger = New(&buf, nil, "info")
	logger.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestNew_TimestampsAreUTC(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, nil, "info").Info("tick")
	assert.Regexp(t, `time=\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z`, buf.String())
}

func TestSetup_WithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.log")
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger, closeFn, err := Setup("info", path)
	require.NoError(t, err)
	logger.Info("to file")
	require.NoError(t, closeFn())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Logging initialized")
	assert.Contains(t, string(b), "to file")
}

func TestSetup_BadPath(t *testing.T) {
	_, _, err := Setup("info", filepath.Join(t.TempDir(), "missing", "x.log"))
	assert.Error(t, err)
}

func TestStdLogger(t *testing.T) {
	var buf bytes.Buffer
	StdLogger(New(&buf, nil, "info"), slog.LevelInfo).Print("GET /healthz 200")
	assert.Contains(t, buf.String(), "GET /healthz 200")
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(failingHandler{}, nil, slog.NewTextHandler(&buf, nil))
	err := slog.New(h).Handler().Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "still here", 0))

	assert.Error(t, err)
	assert.Contains(t, buf.String(), "still here")
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewMultiHandler(slog.NewTextHandler(&buf, nil)))
	logger.With("overlay", "abc").WithGroup("frame").Info("drawn", "value", 5)

	assert.Contains(t, buf.String(), "overlay=abc")
	assert.Contains(t, buf.String(), "frame.value=5")
}

package mylog_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, mylog.ToLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, mylog.ToLogLevel("warn"))
	assert.Equal(t, slog.LevelInfo, mylog.ToLogLevel("verbose"))
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := mylog.NewLoggerWithWriter("info", "json", &buf)

	logger.Debug("hidden")
	logger.Info("thread created", "thread_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "thread created", record["msg"])
	assert.Equal(t, "abc", record["thread_id"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := mylog.NewLoggerWithWriter("warn", "text", &buf)

	logger.Info("hidden")
	logger.Warn("quota low")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "quota low")
}

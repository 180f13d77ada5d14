package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" WARN "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("chatty"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
}

func TestNewCore_JSONFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(NewCore("warn", "json", zapcore.AddSync(&buf)))

	log.Info("hidden")
	log.Warn("shown", zap.String("project", "p1"))
	require.NoError(t, log.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "p1", line["project"])
	assert.Contains(t, line, "ts")
}

func TestNewCore_Console(t *testing.T) {
	var buf bytes.Buffer
	log := zap.New(NewCore("info", "console", zapcore.AddSync(&buf))).Named("resolver")

	log.Info("project resolved", zap.String("uuid", "abc"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "resolver")
	assert.Contains(t, out, `"uuid": "abc"`)
}

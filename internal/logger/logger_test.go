package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("WIB", 7*60*60)
	log := NewWithWriter(&buf, zapcore.InfoLevel, loc)

	log.Debug("dropped")
	log.Info("server_started", zap.String("port", "3000"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "server_started", entry["msg"])
	assert.Equal(t, "3000", entry["port"])
	assert.True(t, strings.HasSuffix(entry["ts"].(string), "+07:00"))
}

func TestNew(t *testing.T) {
	_, err := New("verbose", time.UTC)
	assert.Error(t, err)

	log, err := New("debug", time.UTC)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.UTC, Location("Not/AZone"))
	assert.Equal(t, "UTC", Location("UTC").String())
}

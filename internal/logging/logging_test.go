package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OCAP2/drivesim/internal/dispatcher"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionStart = time.Date(2026, 2, 12, 21, 38, 36, 0, time.UTC)

func TestLogFilePath(t *testing.T) {
	tests := []struct {
		name    string
		logsDir string
		want    string
	}{
		{"relative", "drivesimlogs", filepath.Join("drivesimlogs", "drivesim.20260212_213836.log")},
		{"dotted", "./logs", filepath.Join("logs", "drivesim.20260212_213836.log")},
		{"absolute", filepath.Join("/var", "log"), filepath.Join("/var", "log", "drivesim.20260212_213836.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LogFilePath(tt.logsDir, "drivesim", sessionStart))
		})
	}
}

func TestOpenLogFile_RotatesExisting(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	f, err := OpenLogFile(dir, "drivesim", sessionStart)
	require.NoError(t, err)
	_, err = f.WriteString("first session\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	f, err = OpenLogFile(dir, "drivesim", sessionStart)
	require.NoError(t, err)
	defer f.Close()

	path := LogFilePath(dir, "drivesim", sessionStart)
	old, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, "first session\n", string(old))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestOpenLogFile_DirIsFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := OpenLogFile(blocker, "drivesim", sessionStart)
	assert.ErrorContains(t, err, "failed to create logs dir")
}

func TestNewDispatcherLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var l dispatcher.Logger = NewDispatcherLogger(base)
	l.Error("event failed", "kind", dispatcher.KindFrame, "code", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "dispatcher", entry["component"])
	assert.Equal(t, "frame", entry["kind"])
	assert.Equal(t, float64(3), entry["code"])
}

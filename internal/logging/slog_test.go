package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// stdoutTo points osStdout at a pipe; the returned func restores it and
// yields everything written meanwhile.
func stdoutTo(t *testing.T) func() string {
	t.Helper()
	r, w, err := osPipe()
	require.NoError(t, err)

	prev := osStdout
	osStdout = w
	return func() string {
		w.Close()
		osStdout = prev
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()
		return buf.String()
	}
}

func TestSetup_Sinks(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		stdout := stdoutTo(t)
		var file bytes.Buffer
		m := NewSlogManager()
		m.Setup(&file, "info", nil)
		m.Logger().Info("run started", "seed", 42)

		assert.Empty(t, stdout())
		assert.Contains(t, file.String(), `msg="Logging initialized" level=INFO`)
		assert.Contains(t, file.String(), `msg="run started" seed=42`)
	})

	t.Run("stdout", func(t *testing.T) {
		stdout := stdoutTo(t)
		m := NewSlogManager()
		m.Setup(nil, "warn", nil)
		m.Logger().Warn("frame budget exceeded")

		assert.Contains(t, stdout(), "frame budget exceeded")
	})
}

func TestSetup_Levels(t *testing.T) {
	cases := map[string]struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		"debug":   {"debug", true, true},
		"info":    {"INFO", false, true},
		"error":   {"Error", false, false},
		"unknown": {"loud", false, true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			m := NewSlogManager()
			m.Setup(&buf, tc.level, nil)
			m.Logger().Debug("camera lag")
			m.Logger().Info("lights on")

			assert.Equal(t, tc.debugSeen, strings.Contains(buf.String(), "camera lag"))
			assert.Equal(t, tc.infoSeen, strings.Contains(buf.String(), "lights on"))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestSetup_SecondCallReplacesLogger(t *testing.T) {
	var first, second bytes.Buffer
	m := NewSlogManager()

	m.Setup(&first, "info", nil)
	m.Logger().Info("lap one")
	m.Setup(&second, "info", nil)
	m.Logger().Info("lap two")

	assert.NotContains(t, first.String(), "lap two")
	assert.Contains(t, second.String(), "lap two")
}

func TestSetup_TimestampsAreUTC(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(&buf, "info", nil)

	line := strings.SplitN(buf.String(), "\n", 2)[0]
	require.True(t, strings.HasPrefix(line, "time="))
	stamp := strings.Fields(line)[0]
	assert.True(t, strings.HasSuffix(stamp, "Z"), stamp)
}

func TestLogger_BeforeSetup(t *testing.T) {
	assert.Same(t, slog.Default(), NewSlogManager().Logger())
}

func TestFlush(t *testing.T) {
	m := NewSlogManager()
	assert.NoError(t, m.Flush(context.Background()))

	var buf bytes.Buffer
	m.Setup(&buf, "info", sdklog.NewLoggerProvider())
	m.Logger().Info("bridged")
	assert.Contains(t, buf.String(), "bridged")
	assert.NoError(t, m.Flush(context.Background()))
}

package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewZerolog builds the console-format zerolog logger used by the influx
// writer. Output goes to file when given and to stdout otherwise; provider
// attributes are added to every event.
func NewZerolog(file io.Writer, level string, provider ContextProvider) zerolog.Logger {
	var lvl zerolog.Level
	switch strings.ToUpper(level) {
	case "TRACE":
		lvl = zerolog.TraceLevel
	case "DEBUG":
		lvl = zerolog.DebugLevel
	case "WARN":
		lvl = zerolog.WarnLevel
	case "ERROR":
		lvl = zerolog.ErrorLevel
	default:
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: osStdout, TimeFormat: time.RFC3339}
	if file != nil {
		out = zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true}
	}

	logger := zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
	if provider == nil {
		return logger
	}
	return logger.Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		for _, a := range provider() {
			e.Interface(a.Key, a.Value.Any())
		}
	}))
}

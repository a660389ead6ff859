package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Setup initializes the global zerolog logger.
//   - level: trace, debug, info, warn, error, fatal, panic (unknown values fall back to info)
//   - format: "pretty" for console output, anything else for JSON lines
func Setup(level, format string) zerolog.Logger {
	return New(os.Stdout, level, format)
}

// New builds a logger writing to w. Setup uses it with stdout; tests pass a buffer.
func New(w io.Writer, level, format string) zerolog.Logger {
	writer := w
	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Str("service", "websurvey").
		Logger()
}

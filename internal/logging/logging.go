// Package logging wires zerolog for the binaries.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel 不认识的级别一律当作 info。
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// Setup builds the process logger, installs it as the global log.Logger and sets the
// global level. pretty switches to the human readable console writer.
func Setup(level string, pretty bool) zerolog.Logger {
	return setup(os.Stderr, level, pretty)
}

func setup(w io.Writer, level string, pretty bool) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(level))
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a console logger writing to w at the named level. Unknown
// levels fall back to info.
func New(level string, w io.Writer, noColor bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}
	return zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Setup installs New as the global logger and returns it.
func Setup(level string, w io.Writer, noColor bool) zerolog.Logger {
	logger := New(level, w, noColor)
	log.Logger = logger
	return logger
}

func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

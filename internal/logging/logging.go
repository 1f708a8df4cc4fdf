// Package logging builds the diagnostic logger. Diagnostics go to stderr so
// they never mix with command output.
package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a console logger writing to w at level. Unknown levels fall
// back to warn.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).Level(lvl).With().Timestamp().Logger()
}

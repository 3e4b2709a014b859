package morphogen

import (
	"io"
	"log/slog"

	charmlog "github.com/charmbracelet/log"
)

// NewLogger returns a human-friendly *slog.Logger backed by a
// charmbracelet/log handler, suitable for passing to WithLogger.
// Stream diagnostics (malformed fragments, discarded trailing bytes)
// log at debug level, so pass debug=true to see them.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	return slog.New(charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	}))
}

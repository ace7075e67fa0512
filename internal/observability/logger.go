// Package observability sets up logging and Prometheus metrics.
package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger builds the process logger and installs it as the global
// zerolog logger. Logs go to stderr; stdout belongs to the stdio transport.
func InitLogger(app, level, format string) (zerolog.Logger, error) {
	return NewLogger(os.Stderr, app, level, format)
}

// NewLogger builds a logger writing to w. format is "console" (default)
// or "json".
func NewLogger(w io.Writer, app, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer
	switch format {
	case "", "console":
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(w),
		}
	case "json":
		out = w
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

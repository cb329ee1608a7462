package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a structured JSON logger on stderr.
// If verbose == true, level = Debug, else the level named by level.
func NewLogger(level string, verbose bool) *slog.Logger {
	return New(os.Stderr, level, verbose)
}

func New(w io.Writer, level string, verbose bool) *slog.Logger {
	lv := new(slog.LevelVar)
	if verbose {
		lv.Set(slog.LevelDebug)
	} else {
		lv.Set(ParseLevel(level))
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lv,
	})
	return slog.New(handler)
}

// ParseLevel maps DEBUG/WARN/ERROR (any case) to slog levels; anything
// else is Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

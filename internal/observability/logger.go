package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/couchcryptid/air-quality-etl/internal/config"
)

// NewLogger builds the process logger: JSON by default, colored text when
// LOG_FORMAT=text.
func NewLogger(cfg *config.Config) *slog.Logger {
	return slog.New(NewHandler(os.Stdout, cfg.LogFormat, cfg.LogLevel))
}

// NewHandler returns the slog handler for the given format and level names.
// Unknown levels fall back to info.
func NewHandler(w io.Writer, format, level string) slog.Handler {
	lvl := ParseLevel(level)
	if format == "text" {
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
}

// ParseLevel maps LOG_LEVEL values to slog levels.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

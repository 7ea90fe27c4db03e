package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/heartmarshall/cfp-sync/internal/config"
)

// NewLogger builds the process logger writing to w and installs it as the
// slog default. Every record carries the build version.
//
// Format "text" adds source locations; anything else is JSON.
// Level is debug, info, warn or error (case-insensitive), default info.
// Commands pass os.Stderr so stdout stays free for the import report.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	text := strings.EqualFold(cfg.Format, "text")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: text,
	}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("version", Version))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

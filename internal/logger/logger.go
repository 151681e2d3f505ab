package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelTrace sits below debug and logs every provider round trip.
const LevelTrace = slog.LevelDebug - 4

// Configure installs the default slog logger. An empty file logs to stdout.
func Configure(levelStr string, env string, file string) {
	level, off := parseLogLevel(levelStr)
	var w io.Writer = os.Stdout
	if off {
		w = io.Discard
	} else if file != "" {
		w = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	slog.SetDefault(slog.New(newHandler(w, level, env)))
}

func newHandler(w io.Writer, level slog.Level, env string) slog.Handler {
	if env == "dev" || env == "development" {
		return tint.NewHandler(w, &tint.Options{Level: level})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

func parseLogLevel(level string) (slog.Level, bool) {
	switch level {
	case "trace":
		return LevelTrace, false
	case "debug":
		return slog.LevelDebug, false
	case "info":
		return slog.LevelInfo, false
	case "warn":
		return slog.LevelWarn, false
	case "error":
		return slog.LevelError, false
	case "off":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

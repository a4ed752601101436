package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	log  *slog.Logger
	once sync.Once
)

func instance() *slog.Logger {
	once.Do(func() {
		if log == nil {
			log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
		}
	})
	return log
}

// Init configures the global logger. Level is one of debug|info|warn|error.
func Init(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func Debug(msg string, args ...any) {
	instance().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	instance().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	instance().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	instance().Error(msg, args...)
}

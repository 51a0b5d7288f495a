package bootstrap

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/shopkit/shopkit/env"
	"github.com/shopkit/shopkit/models"
)

// LoggerOptions configures logger initialization.
type LoggerOptions struct {
	Level string
}

func parseLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger builds the process-wide logger: a colored tint handler for
// development, plain JSON for production.
func InitLogger(opts LoggerOptions) models.Logger {
	var handler slog.Handler
	if os.Getenv(env.EnvGoEnvironment) == "production" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(opts.Level),
		})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// setupLogging installs a slog.Handler appropriate for env: tint's
// human-readable handler for "dev", plain JSON for "prod". Grounded on
// cmd/stowry/logging.go, unchanged in shape.
func setupLogging(env, level string) {
	lvl := parseLevel(level)

	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      lvl,
			AddSource:  true,
			TimeFormat: "15:04:05.000",
		})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	log.SetOutput(slog.NewLogLogger(handler, slog.LevelInfo).Writer())
}

func parseLevel(s string) slog.Level {
	switch s {
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

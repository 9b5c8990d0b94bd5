package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the boot-time logger: JSON to stdout, level from LOG_LEVEL.
// Once the database is up, main replaces it with a MultiHandler that also
// feeds the system_logs sink (see PGHandler).
func Setup() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: LevelFromEnv(),
	})
	slog.SetDefault(slog.New(handler))
}

// LevelFromEnv maps LOG_LEVEL to an slog level, defaulting to info.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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

package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the application logger. Production deployments set
// LOG_FORMAT=json for ingestion; anything else gets the text handler.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("env", envLabel(cfg)))
}

func envLabel(cfg *Config) string {
	if cfg == nil || cfg.AppEnv == "" {
		return "development"
	}
	return cfg.AppEnv
}

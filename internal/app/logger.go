package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. JSON output targets aggregated
// deployments; the text handler is the local default. Every line carries
// the service name so worker and API logs stay distinguishable downstream.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "stockpilot")
}

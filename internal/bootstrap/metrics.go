package bootstrap

import (
	"context"
	"log/slog"

	"github.com/secureops/secureops-client/config"
	"github.com/secureops/secureops-client/internal/observability/statsd"
)

// BuildMetricsSink returns a StatsD sink when metrics are enabled and a
// NopSink otherwise. A failed dial is logged and falls back to NopSink;
// metrics never stop the client from starting.
//
//nolint:ireturn // callers only need the Sink behaviour.
func BuildMetricsSink(ctx context.Context, logger *slog.Logger, cfg config.ObservabilityMetricsConfig) (statsd.Sink, func() error) {
	noop := func() error { return nil }
	if !cfg.IsEnabled() {
		return statsd.NopSink{}, noop
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := statsd.Dial(ctx, statsd.Config{
		Address: cfg.StatsdAddress,
		Prefix:  cfg.Prefix,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return statsd.NopSink{}, noop
	}
	return client, client.Close
}

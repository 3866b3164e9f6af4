package config

import (
	"go.uber.org/fx"

	"github.com/studioops/billing/internal/observability/tracing"
	"github.com/studioops/billing/internal/scheduler"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(func(cfg Config) scheduler.Config {
		return scheduler.Config{
			PollInterval: cfg.Scheduler.PollInterval,
			BatchSize:    cfg.Scheduler.BatchSize,
		}
	}),
	fx.Provide(func(cfg Config) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Tracing.Enabled,
			ServiceName:      cfg.ServiceName,
			ServiceVersion:   cfg.ServiceVersion,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Tracing.ExporterEndpoint,
			ExporterProtocol: cfg.Tracing.ExporterProtocol,
			SamplingRatio:    cfg.Tracing.SamplingRatio,
		}
	}),
)

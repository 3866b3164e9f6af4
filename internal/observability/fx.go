package observability

import (
	"go.uber.org/fx"

	"github.com/studioops/billing/internal/observability/logger"
	"github.com/studioops/billing/internal/observability/tracing"
)

// Module wires logging and tracing for the whole application.
var Module = fx.Options(
	logger.Module,
	fx.Module("tracing",
		fx.Invoke(tracing.NewProvider),
	),
)

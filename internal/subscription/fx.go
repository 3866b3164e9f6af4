package subscription

import (
	"go.uber.org/fx"

	"github.com/studioops/billing/internal/subscription/repository"
	"github.com/studioops/billing/internal/subscription/service"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

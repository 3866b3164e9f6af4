package payment

import (
	"go.uber.org/fx"

	"github.com/studioops/billing/internal/cache"
	"github.com/studioops/billing/internal/payment/domain"
	"github.com/studioops/billing/internal/payment/repository"
	"github.com/studioops/billing/internal/payment/service"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(newReplayCache),
	fx.Provide(service.NewService),
)

func newReplayCache() cache.Cache[string, *domain.Payment] {
	return cache.NewTTLCache[string, *domain.Payment]()
}

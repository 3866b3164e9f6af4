package document

import (
	"go.uber.org/fx"

	"github.com/studioops/billing/internal/document/domain"
	"github.com/studioops/billing/internal/document/repository"
	"github.com/studioops/billing/internal/document/service"
)

var Module = fx.Module("document.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
	fx.Provide(func(s *service.Service) domain.Sweeper { return s }),
)

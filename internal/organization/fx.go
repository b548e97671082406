package organization

import (
	"github.com/tradeplane/tradeplane/internal/organization/repository"
	"github.com/tradeplane/tradeplane/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

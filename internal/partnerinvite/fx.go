package partnerinvite

import (
	"github.com/tradeplane/tradeplane/internal/partnerinvite/repository"
	"github.com/tradeplane/tradeplane/internal/partnerinvite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("partnerinvite.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

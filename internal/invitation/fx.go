package invitation

import (
	"github.com/tradeplane/tradeplane/internal/invitation/repository"
	"github.com/tradeplane/tradeplane/internal/invitation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invitation.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

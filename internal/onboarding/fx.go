package onboarding

import (
	"github.com/tradeplane/tradeplane/internal/onboarding/repository"
	"github.com/tradeplane/tradeplane/internal/onboarding/service"
	"go.uber.org/fx"
)

var Module = fx.Module("onboarding.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)

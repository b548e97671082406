package auth

import (
	"github.com/tradeplane/tradeplane/internal/auth/repository"
	"github.com/tradeplane/tradeplane/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)

package apikey

import (
	"github.com/tradeplane/tradeplane/internal/apikey/repository"
	"github.com/tradeplane/tradeplane/internal/apikey/service"
	"go.uber.org/fx"
)

var Module = fx.Module("apikey.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

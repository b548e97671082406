package audit

import (
	"github.com/tradeplane/tradeplane/internal/audit/repository"
	"github.com/tradeplane/tradeplane/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

package providers

import (
	"github.com/tradeplane/tradeplane/internal/providers/email"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
)

package billing

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing",
	fx.Provide(service.NewService),
)

package analytics

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics",
	fx.Provide(service.NewService),
)

package reconcile

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile",
	fx.Provide(service.NewEngine),
)

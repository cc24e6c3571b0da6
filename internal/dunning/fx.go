package dunning

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/dunning/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dunning",
	fx.Provide(service.NewService),
)

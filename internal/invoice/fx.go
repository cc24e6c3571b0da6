package invoice

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/repository"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

package audit

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/repository"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

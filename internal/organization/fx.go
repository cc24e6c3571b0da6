package organization

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(repository.Provide),
)

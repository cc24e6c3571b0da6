package provider

import (
	providerstripe "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("provider",
	fx.Provide(
		providerstripe.NewClient,
	),
)

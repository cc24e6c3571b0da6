package ingest

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/ingest/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest",
	fx.Provide(service.NewService),
)

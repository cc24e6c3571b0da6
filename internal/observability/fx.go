package observability

import (
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/logger"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/metrics"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/tracing"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	logger.Module,
	tracing.Module,
	metrics.Module,
)

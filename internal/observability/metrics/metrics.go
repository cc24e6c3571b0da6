package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/gin-gonic/gin"
)

var Module = fx.Module("observability.metrics",
	fx.Provide(NewMetrics),
)

// Metrics holds the service's Prometheus instruments.
type Metrics struct {
	registry *prometheus.Registry

	// AuditLogWriteFailures counts audit rows that could not be persisted.
	// Audit failure is non-fatal to the primary operation, so this counter is
	// the only place those failures stay visible.
	AuditLogWriteFailures prometheus.Counter

	// WebhookEvents counts inbound provider events by terminal outcome.
	WebhookEvents *prometheus.CounterVec

	// DunningNotifications counts dunning sends by kind and delivery mode.
	DunningNotifications *prometheus.CounterVec
}

// NewMetrics builds and registers all instruments on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		AuditLogWriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "audit_log_write_failures_total",
			Help: "Audit log rows dropped because the insert failed.",
		}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Inbound provider webhook events by outcome.",
		}, []string{"outcome"}),
		DunningNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dunning_notifications_total",
			Help: "Dunning notifications dispatched by kind and delivery mode.",
		}, []string{"kind", "mocked"}),
	}

	registry.MustRegister(m.AuditLogWriteFailures, m.WebhookEvents, m.DunningNotifications)
	return m
}

// GinHandler exposes the registry for a /metrics route.
func (m *Metrics) GinHandler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

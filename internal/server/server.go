package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	analyticsdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/analytics/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/auth"
	billingdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/billing/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	dunningdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/dunning/domain"
	ingestdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/ingest/domain"
	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/logger"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/metrics"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/tracing"
	reconciledomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg       config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Metrics   *metrics.Metrics
	Sessions  auth.Sessions
	Ingest    ingestdomain.Service
	Engine    reconciledomain.Engine
	Dunning   dunningdomain.Service
	Billing   billingdomain.Service
	Analytics analyticsdomain.Service
	Invoices  invoicedomain.Service
}

// Server owns the gin engine and all route handlers.
type Server struct {
	cfg       config.Config
	db        *gorm.DB
	log       *zap.Logger
	metrics   *metrics.Metrics
	sessions  auth.Sessions
	ingest    ingestdomain.Service
	engine    reconciledomain.Engine
	dunning   dunningdomain.Service
	billing   billingdomain.Service
	analytics analyticsdomain.Service
	invoices  invoicedomain.Service

	router *gin.Engine
}

func NewServer(p Params) *Server {
	s := &Server{
		cfg:       p.Cfg,
		db:        p.DB,
		log:       p.Log.Named("server"),
		metrics:   p.Metrics,
		sessions:  p.Sessions,
		ingest:    p.Ingest,
		engine:    p.Engine,
		dunning:   p.Dunning,
		billing:   p.Billing,
		analytics: p.Analytics,
		invoices:  p.Invoices,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Tracing runs first so the request logger can pick up trace ids.
	r.Use(tracing.GinMiddleware(s.cfg.ServiceName))
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", s.metrics.GinHandler())

	api := r.Group("/api")
	{
		api.POST("/webhooks/stripe", s.handleWebhook)

		cron := api.Group("/cron", s.requireCronKey())
		{
			cron.POST("/reconcile", s.handleCronReconcile)
			cron.POST("/dunning", s.handleCronDunning)
		}

		authed := api.Group("", s.requireSession())
		{
			authed.POST("/billing/checkout", s.handleCheckout)
			authed.POST("/billing/resume", s.handleResume)
			authed.GET("/analytics/aging", s.handleAnalyticsAging)
			authed.GET("/analytics/summary", s.handleAnalyticsSummary)
			authed.GET("/analytics/dunning", s.handleAnalyticsDunning)
			authed.GET("/invoices", s.handleListInvoices)

			if !s.cfg.IsProduction() {
				authed.POST("/dev/sync", s.handleDevSync)
			}
		}
	}
	return r
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

func (s *Server) handleHealthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RunHTTP starts the listener under the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/analytics"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/auth"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/billing"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/dunning"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/ingest"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/mailer"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/migration"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/seed"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/server"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		organization.Module,
		audit.Module,
		provider.Module,
		reconcile.Module,
		ingest.Module,
		mailer.Module,
		dunning.Module,
		invoice.Module,
		analytics.Module,
		billing.Module,
		auth.Module,
		seed.Module,
		server.Module,
	)
	app.Run()
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/cache"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile/domain"
	subdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// tenantCacheTTL bounds how long a customer-to-org mapping is trusted without
// re-reading it. Mappings never change once set, so this is only a memory bound.
const tenantCacheTTL = 15 * time.Minute

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Provider providerdomain.Client
	Orgs     orgdomain.Repository
	Audit    auditdomain.Service
}

type Engine struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	provider providerdomain.Client
	orgs     orgdomain.Repository
	audit    auditdomain.Service
	tenants  *cache.TTLCache[string, snowflake.ID]
}

func NewEngine(p Params) domain.Engine {
	return &Engine{
		db:       p.DB,
		log:      p.Log.Named("reconcile.engine"),
		genID:    p.GenID,
		clock:    p.Clock,
		provider: p.Provider,
		orgs:     p.Orgs,
		audit:    p.Audit,
		tenants:  cache.NewTTLCache[string, snowflake.ID](),
	}
}

func (e *Engine) UpsertSubscription(ctx context.Context, state providerdomain.SubscriptionState, origin domain.Origin, eventType string) error {
	orgID, err := e.resolveOrgID(ctx, state.CustomerID)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	status := subdomain.SubscriptionStatus(state.Status)
	plan := subdomain.PlanForStatus(status)

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`INSERT INTO subscriptions
			   (id, org_id, stripe_subscription_id, status, price_id,
			    current_period_start, current_period_end, cancel_at_period_end,
			    created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (stripe_subscription_id) DO UPDATE SET
			   org_id = excluded.org_id,
			   status = excluded.status,
			   price_id = excluded.price_id,
			   current_period_start = excluded.current_period_start,
			   current_period_end = excluded.current_period_end,
			   cancel_at_period_end = excluded.cancel_at_period_end,
			   updated_at = excluded.updated_at`,
			e.genID.Generate(),
			orgID,
			state.SubscriptionID,
			status,
			state.PriceID,
			state.CurrentPeriodStart,
			state.CurrentPeriodEnd,
			state.CancelAtPeriodEnd,
			now,
			now,
		)
		if res.Error != nil {
			return fmt.Errorf("upsert subscription %s: %w", state.SubscriptionID, res.Error)
		}
		return e.orgs.SetPlan(ctx, tx, orgID, plan)
	})
	if err != nil {
		return err
	}

	if origin == domain.OriginWebhook {
		e.audit.Log(ctx, &orgID, eventType, map[string]any{
			"stripe_subscription_id": state.SubscriptionID,
			"status":                 state.Status,
			"plan":                   string(plan),
		})
	}

	e.log.Debug("subscription upserted",
		zap.String("stripe_subscription_id", state.SubscriptionID),
		zap.String("status", state.Status),
		zap.String("origin", string(origin)),
	)
	return nil
}

func (e *Engine) UpsertInvoice(ctx context.Context, state providerdomain.InvoiceState, origin domain.Origin, eventType string) error {
	orgID, err := e.resolveOrgID(ctx, state.CustomerID)
	if err != nil {
		return err
	}

	now := e.clock.Now()
	res := e.db.WithContext(ctx).Exec(
		`INSERT INTO invoices
		   (id, org_id, stripe_invoice_id, currency, amount_due, amount_paid,
		    status, due_date, period_start, period_end, hosted_invoice_url,
		    created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (stripe_invoice_id) DO UPDATE SET
		   org_id = excluded.org_id,
		   currency = excluded.currency,
		   amount_due = excluded.amount_due,
		   amount_paid = excluded.amount_paid,
		   status = excluded.status,
		   due_date = excluded.due_date,
		   period_start = excluded.period_start,
		   period_end = excluded.period_end,
		   hosted_invoice_url = excluded.hosted_invoice_url,
		   updated_at = excluded.updated_at`,
		e.genID.Generate(),
		orgID,
		state.InvoiceID,
		state.Currency,
		state.AmountDue,
		state.AmountPaid,
		invoicedomain.InvoiceStatus(state.Status),
		state.DueDate,
		state.PeriodStart,
		state.PeriodEnd,
		state.HostedInvoiceURL,
		state.CreatedAt,
		now,
	)
	if res.Error != nil {
		return fmt.Errorf("upsert invoice %s: %w", state.InvoiceID, res.Error)
	}

	if origin == domain.OriginWebhook {
		e.audit.Log(ctx, &orgID, eventType, map[string]any{
			"stripe_invoice_id": state.InvoiceID,
			"status":            state.Status,
			"amount_due":        state.AmountDue,
			"amount_paid":       state.AmountPaid,
		})
	}

	e.log.Debug("invoice upserted",
		zap.String("stripe_invoice_id", state.InvoiceID),
		zap.String("status", state.Status),
		zap.String("origin", string(origin)),
	)
	return nil
}

// resolveOrgID maps a provider customer id to a local organization. The local
// column is authoritative; provider customer metadata is the fallback for
// customers created before the column was backfilled.
func (e *Engine) resolveOrgID(ctx context.Context, customerID string) (snowflake.ID, error) {
	if customerID == "" {
		return 0, fmt.Errorf("empty customer id: %w", domain.ErrUnresolvedTenant)
	}
	if orgID, ok := e.tenants.Get(customerID); ok {
		return orgID, nil
	}

	org, err := e.orgs.FindByCustomerID(ctx, e.db, customerID)
	if err == nil {
		e.tenants.Set(customerID, org.ID, tenantCacheTTL)
		return org.ID, nil
	}
	if !errors.Is(err, orgdomain.ErrOrganizationNotFound) {
		return 0, err
	}

	raw, err := e.provider.ResolveCustomerOrgID(ctx, customerID)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, fmt.Errorf("customer %s: %w", customerID, domain.ErrUnresolvedTenant)
	}
	orgID, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, fmt.Errorf("customer %s carries malformed org id %q: %w", customerID, raw, domain.ErrUnresolvedTenant)
	}
	if _, err := e.orgs.FindByID(ctx, e.db, orgID); err != nil {
		if errors.Is(err, orgdomain.ErrOrganizationNotFound) {
			return 0, fmt.Errorf("customer %s points at missing org %s: %w", customerID, orgID, domain.ErrUnresolvedTenant)
		}
		return 0, err
	}
	if err := e.orgs.SetCustomerID(ctx, e.db, orgID, customerID); err != nil {
		if errors.Is(err, orgdomain.ErrCustomerRefConflict) {
			return 0, fmt.Errorf("org %s already holds another customer ref: %w", orgID, domain.ErrUnresolvedTenant)
		}
		return 0, err
	}

	e.tenants.Set(customerID, orgID, tenantCacheTTL)
	e.log.Info("backfilled customer reference from provider metadata",
		zap.String("stripe_customer_id", customerID),
		zap.String("org_id", orgID.String()),
	)
	return orgID, nil
}

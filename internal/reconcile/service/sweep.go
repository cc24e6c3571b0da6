package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile/domain"
	"go.uber.org/zap"
)

// maxSweepPages caps how deep one sweep walks into a customer's invoice
// history. Older pages are covered by previous sweeps.
const maxSweepPages = 20

// ReconcileAll repairs local state from the provider for every organization
// with a customer reference. It is the catch-up path for missed webhooks; a
// transient provider failure aborts the run, which callers simply retry.
func (e *Engine) ReconcileAll(ctx context.Context) (domain.SweepStats, error) {
	stats := domain.SweepStats{}

	refs, err := e.orgs.ListCustomerRefs(ctx, e.db)
	if err != nil {
		return stats, fmt.Errorf("list customer refs: %w", err)
	}

	for _, ref := range refs {
		stats.Organizations++

		cursor := ""
		for page := 0; page < maxSweepPages; page++ {
			invoices, next, err := e.provider.ListInvoices(ctx, ref.StripeCustomerID, cursor, providerdomain.InvoicePageLimit)
			if err != nil {
				return stats, fmt.Errorf("list invoices for customer %s: %w", ref.StripeCustomerID, err)
			}
			for _, inv := range invoices {
				if err := e.UpsertInvoice(ctx, inv, domain.OriginSweep, ""); err != nil {
					return stats, err
				}
				stats.InvoicesUpserted++
			}
			if next == "" {
				break
			}
			cursor = next
		}

		sub, err := e.provider.LatestSubscription(ctx, ref.StripeCustomerID)
		if err != nil {
			return stats, fmt.Errorf("latest subscription for customer %s: %w", ref.StripeCustomerID, err)
		}
		if sub == nil {
			continue
		}
		if err := e.UpsertSubscription(ctx, *sub, domain.OriginSweep, ""); err != nil {
			return stats, err
		}
		stats.SubscriptionsSynced++
	}

	e.log.Info("reconciliation sweep finished",
		zap.Int("organizations", stats.Organizations),
		zap.Int("invoices_upserted", stats.InvoicesUpserted),
		zap.Int("subscriptions_synced", stats.SubscriptionsSynced),
	)
	return stats, nil
}

// SyncOrganization pulls one organization's latest subscription and most
// recent invoice from the provider. It stands in for webhook delivery in dev
// environments where the provider cannot reach the local endpoint.
func (e *Engine) SyncOrganization(ctx context.Context, orgID snowflake.ID) error {
	org, err := e.orgs.FindByID(ctx, e.db, orgID)
	if err != nil {
		return err
	}
	if org.StripeCustomerID == nil || *org.StripeCustomerID == "" {
		return fmt.Errorf("organization %s has no customer reference", orgID)
	}
	customerID := *org.StripeCustomerID

	sub, err := e.provider.LatestSubscription(ctx, customerID)
	if err != nil {
		return fmt.Errorf("latest subscription for customer %s: %w", customerID, err)
	}
	if sub != nil {
		if err := e.UpsertSubscription(ctx, *sub, domain.OriginManual, ""); err != nil {
			return err
		}
	}

	invoices, _, err := e.provider.ListInvoices(ctx, customerID, "", 1)
	if err != nil {
		return fmt.Errorf("list invoices for customer %s: %w", customerID, err)
	}
	if len(invoices) > 0 {
		if err := e.UpsertInvoice(ctx, invoices[0], domain.OriginManual, ""); err != nil {
			return err
		}
	}

	e.log.Info("manual sync finished",
		zap.String("org_id", orgID.String()),
		zap.Bool("subscription_synced", sub != nil),
		zap.Int("invoices_upserted", len(invoices)),
	)
	return nil
}

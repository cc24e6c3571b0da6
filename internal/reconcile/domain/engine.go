package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
)

// Origin records which path produced a snapshot. Webhook-origin upserts leave
// an audit trail; sweep-origin upserts are bulk repair and do not.
type Origin string

const (
	OriginWebhook Origin = "webhook"
	OriginSweep   Origin = "sweep"
	OriginManual  Origin = "manual"
)

// SweepStats summarizes one full reconciliation pass.
type SweepStats struct {
	Organizations       int `json:"organizations"`
	InvoicesUpserted    int `json:"invoicesUpserted"`
	SubscriptionsSynced int `json:"subscriptionsSynced"`
}

// Engine applies normalized provider snapshots to local state. Every apply is
// idempotent and order-independent per external id: the last applied snapshot
// wins, with no recency heuristics.
type Engine interface {
	// UpsertSubscription stores the snapshot and re-derives the tenant plan in
	// the same transaction. eventType is the provider event name for
	// webhook-origin audit rows, "" otherwise.
	UpsertSubscription(ctx context.Context, state providerdomain.SubscriptionState, origin Origin, eventType string) error
	// UpsertInvoice stores the snapshot.
	UpsertInvoice(ctx context.Context, state providerdomain.InvoiceState, origin Origin, eventType string) error
	// ReconcileAll pulls provider state for every organization with a customer
	// reference and upserts everything it finds. Retry-safe.
	ReconcileAll(ctx context.Context) (SweepStats, error)
	// SyncOrganization pulls the latest subscription and most recent invoice
	// for one organization's customer. Dev-mode substitute for webhook
	// delivery after a checkout.
	SyncOrganization(ctx context.Context, orgID snowflake.ID) error
}

// ErrUnresolvedTenant: the snapshot's customer cannot be mapped to any local
// organization. Callers log and skip; the provider must not retry these.
var ErrUnresolvedTenant = errors.New("unresolved_tenant")

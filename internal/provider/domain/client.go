package domain

import (
	"context"
	"errors"
)

// Client wraps the payment provider's API behind normalized types. The heavy
// reconciliation code never sees provider SDK structs.
type Client interface {
	// VerifyAndParseEvent checks the HMAC signature over the raw body before
	// any payload parsing, then maps the event into normalized form.
	VerifyAndParseEvent(payload []byte, sigHeader string) (*Event, error)

	// ListInvoices returns one page of a customer's invoices plus an opaque
	// continuation cursor ("" when exhausted).
	ListInvoices(ctx context.Context, customerID, cursor string, limit int) ([]InvoiceState, string, error)

	// LatestSubscription returns the customer's most recent subscription in
	// any status, or nil when the customer has none.
	LatestSubscription(ctx context.Context, customerID string) (*SubscriptionState, error)

	// ResolveCustomerOrgID reads the tenant id tagged onto the provider-side
	// customer at creation time ("" when absent or the customer is deleted).
	ResolveCustomerOrgID(ctx context.Context, customerID string) (string, error)

	// CreateCustomer registers a provider-side customer tagged with the tenant
	// id so future events can be resolved back to the tenant.
	CreateCustomer(ctx context.Context, orgID, orgName, email string) (string, error)

	// NewCheckoutSession returns the provider-hosted checkout URL.
	NewCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)

	// ClearCancelAtPeriodEnd resumes a subscription scheduled for cancellation.
	ClearCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

var (
	// ErrInvalidSignature: the inbound event cannot be trusted; reject without parsing.
	ErrInvalidSignature = errors.New("invalid_signature")
	// ErrMapping: a provider payload is missing required identifying fields.
	// Batch callers log and skip the record, then continue.
	ErrMapping = errors.New("mapping_error")
	// ErrTransient: network or rate-limit failure talking to the provider.
	// Callers may retry the whole operation.
	ErrTransient = errors.New("provider_transient_error")
)

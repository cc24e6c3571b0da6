package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"
)

const orgMetadataKey = "org_id"

// Client implements providerdomain.Client against the Stripe API.
type Client struct {
	webhookSecret string
	log           *zap.Logger
	now           func() time.Time
}

// NewClient configures the Stripe SDK and returns the provider client.
func NewClient(cfg config.Config, log *zap.Logger) providerdomain.Client {
	stripe.Key = cfg.StripeSecretKey
	return &Client{
		webhookSecret: cfg.StripeWebhookSecret,
		log:           log.Named("provider.stripe"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (c *Client) VerifyAndParseEvent(payload []byte, sigHeader string) (*providerdomain.Event, error) {
	if strings.TrimSpace(sigHeader) == "" {
		return nil, providerdomain.ErrInvalidSignature
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", providerdomain.ErrInvalidSignature, err)
	}

	out := &providerdomain.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch string(event.Type) {
	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("parse subscription payload: %w", providerdomain.ErrMapping)
		}
		state, err := mapSubscription(&sub)
		if err != nil {
			return nil, err
		}
		out.Category = providerdomain.CategorySubscription
		out.Subscription = &state

	case "invoice.created",
		"invoice.finalized",
		"invoice.payment_succeeded",
		"invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("parse invoice payload: %w", providerdomain.ErrMapping)
		}
		state, createdFallback, err := mapInvoice(&inv, c.now())
		if err != nil {
			return nil, err
		}
		if createdFallback {
			c.log.Warn("invoice payload missing created timestamp, using current time",
				zap.String("invoice_id", state.InvoiceID))
		}
		out.Category = providerdomain.CategoryInvoice
		out.Invoice = &state

	default:
		out.Category = providerdomain.CategoryIgnored
	}

	return out, nil
}

func (c *Client) ListInvoices(ctx context.Context, customerID, cursor string, limit int) ([]providerdomain.InvoiceState, string, error) {
	if limit <= 0 || limit > providerdomain.InvoicePageLimit {
		limit = providerdomain.InvoicePageLimit
	}

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))
	if cursor != "" {
		params.StartingAfter = stripe.String(cursor)
	}

	states := make([]providerdomain.InvoiceState, 0, limit)
	iter := invoice.List(params)
	for iter.Next() {
		if len(states) == limit {
			break
		}
		state, createdFallback, err := mapInvoice(iter.Invoice(), c.now())
		if err != nil {
			// A single malformed record must not abort the page.
			c.log.Warn("skipping unmappable invoice", zap.Error(err))
			continue
		}
		if createdFallback {
			c.log.Warn("invoice missing created timestamp, using current time",
				zap.String("invoice_id", state.InvoiceID))
		}
		states = append(states, state)
	}
	if err := iter.Err(); err != nil {
		return nil, "", wrapStripeError("list invoices", err)
	}

	nextCursor := ""
	if len(states) == limit {
		nextCursor = states[len(states)-1].InvoiceID
	}
	return states, nextCursor, nil
}

func (c *Client) LatestSubscription(ctx context.Context, customerID string) (*providerdomain.SubscriptionState, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := subscription.List(params)
	if iter.Next() {
		state, err := mapSubscription(iter.Subscription())
		if err != nil {
			return nil, err
		}
		return &state, nil
	}
	if err := iter.Err(); err != nil {
		return nil, wrapStripeError("list subscriptions", err)
	}
	return nil, nil
}

func (c *Client) ResolveCustomerOrgID(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx
	cust, err := customer.Get(customerID, params)
	if err != nil {
		return "", wrapStripeError("retrieve customer", err)
	}
	if cust == nil || cust.Deleted {
		return "", nil
	}
	return strings.TrimSpace(cust.Metadata[orgMetadataKey]), nil
}

func (c *Client) CreateCustomer(ctx context.Context, orgID, orgName, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(orgName),
		Metadata: map[string]string{
			orgMetadataKey: orgID,
		},
	}
	params.Context = ctx
	cust, err := customer.New(params)
	if err != nil {
		return "", wrapStripeError("create customer", err)
	}
	return cust.ID, nil
}

func (c *Client) NewCheckoutSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(successURL),
		CancelURL:           stripe.String(cancelURL),
	}
	params.Context = ctx
	sess, err := session.New(params)
	if err != nil {
		return "", wrapStripeError("create checkout session", err)
	}
	return sess.URL, nil
}

func (c *Client) ClearCancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx
	if _, err := subscription.Update(subscriptionID, params); err != nil {
		return wrapStripeError("resume subscription", err)
	}
	return nil
}

// wrapStripeError tags retryable provider failures so callers can tell a
// transient outage apart from a real rejection.
func wrapStripeError(op string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusTooManyRequests || stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%s: %v: %w", op, err, providerdomain.ErrTransient)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	// Anything that never reached Stripe (DNS, timeouts) is retryable.
	return fmt.Errorf("%s: %v: %w", op, err, providerdomain.ErrTransient)
}

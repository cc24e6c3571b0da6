package stripe

import (
	"fmt"
	"strings"
	"time"

	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	stripe "github.com/stripe/stripe-go/v82"
)

// The mapper is the only place that touches Stripe SDK structs. Everything
// here is pure: SDK-shape variance (expandable fields, item-level periods) is
// absorbed into one stable normalized form.

func mapSubscription(sub *stripe.Subscription) (providerdomain.SubscriptionState, error) {
	if sub == nil || strings.TrimSpace(sub.ID) == "" {
		return providerdomain.SubscriptionState{}, fmt.Errorf("subscription id missing: %w", providerdomain.ErrMapping)
	}

	state := providerdomain.SubscriptionState{
		SubscriptionID:    sub.ID,
		CustomerID:        customerID(sub.Customer),
		Status:            normalizeStatus(string(sub.Status), "incomplete"),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}

	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		if item.Price != nil && item.Price.ID != "" {
			priceID := item.Price.ID
			state.PriceID = &priceID
		}
		state.CurrentPeriodStart = unixTime(item.CurrentPeriodStart)
		state.CurrentPeriodEnd = unixTime(item.CurrentPeriodEnd)
	}

	return state, nil
}

// mapInvoice normalizes a provider invoice. The second return reports whether
// the created timestamp had to fall back to now; callers log that degradation.
func mapInvoice(inv *stripe.Invoice, now time.Time) (providerdomain.InvoiceState, bool, error) {
	if inv == nil || strings.TrimSpace(inv.ID) == "" {
		return providerdomain.InvoiceState{}, false, fmt.Errorf("invoice id missing: %w", providerdomain.ErrMapping)
	}

	currency := strings.ToUpper(strings.TrimSpace(string(inv.Currency)))
	if currency == "" {
		currency = "USD"
	}

	state := providerdomain.InvoiceState{
		InvoiceID:   inv.ID,
		CustomerID:  customerID(inv.Customer),
		Currency:    currency,
		AmountDue:   inv.AmountDue,
		AmountPaid:  inv.AmountPaid,
		Status:      normalizeStatus(string(inv.Status), "draft"),
		DueDate:     unixTime(inv.DueDate),
		PeriodStart: unixTime(inv.PeriodStart),
		PeriodEnd:   unixTime(inv.PeriodEnd),
	}

	if inv.HostedInvoiceURL != "" {
		url := inv.HostedInvoiceURL
		state.HostedInvoiceURL = &url
	}

	createdFallback := false
	if inv.Created > 0 {
		state.CreatedAt = time.Unix(inv.Created, 0).UTC()
	} else {
		state.CreatedAt = now.UTC()
		createdFallback = true
	}

	return state, createdFallback, nil
}

// normalizeStatus upper-cases for local storage. Unknown provider statuses
// pass through so newer SDK versions do not break ingestion.
func normalizeStatus(status, fallback string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		status = fallback
	}
	return strings.ToUpper(status)
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func unixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

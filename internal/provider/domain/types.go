package domain

import "time"

// SubscriptionState is one normalized snapshot of a provider-side subscription.
// Any individual sight is a valid snapshot; nothing downstream assumes ordering
// between snapshots of the same subscription.
type SubscriptionState struct {
	SubscriptionID     string
	CustomerID         string
	Status             string // upper-cased, unknown values pass through
	PriceID            *string
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// InvoiceState is one normalized snapshot of a provider-side invoice. Amounts
// are integer minor currency units, copied verbatim from the provider.
type InvoiceState struct {
	InvoiceID        string
	CustomerID       string
	Currency         string // upper-cased ISO code
	AmountDue        int64
	AmountPaid       int64
	Status           string // upper-cased, unknown values pass through
	DueDate          *time.Time
	PeriodStart      *time.Time
	PeriodEnd        *time.Time
	HostedInvoiceURL *string
	CreatedAt        time.Time
}

// EventCategory tags which branch of the Event union is populated.
type EventCategory string

const (
	CategorySubscription EventCategory = "subscription"
	CategoryInvoice      EventCategory = "invoice"
	// CategoryIgnored marks event types this system does not process. The
	// provider retries non-2xx deliveries, so ignored events must still be
	// acknowledged as successes.
	CategoryIgnored EventCategory = "ignored"
)

// Event is a verified, normalized inbound provider event. Exactly one of
// Subscription/Invoice is set when Category is not ignored.
type Event struct {
	ID           string
	Type         string
	Category     EventCategory
	Subscription *SubscriptionState
	Invoice      *InvoiceState
}

// InvoicePageLimit bounds one page of the invoice listing used by the sweep.
const InvoicePageLimit = 100

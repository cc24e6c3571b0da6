package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db/pagination"
)

// View is one invoice row enriched for display: outstanding balance, aging,
// and collection flags computed against the request time.
type View struct {
	ID               snowflake.ID  `json:"id"`
	StripeInvoiceID  string        `json:"stripe_invoice_id"`
	Currency         string        `json:"currency"`
	AmountDue        int64         `json:"amount_due"`
	AmountPaid       int64         `json:"amount_paid"`
	Outstanding      int64         `json:"outstanding"`
	Status           InvoiceStatus `json:"status"`
	DueDate          *time.Time    `json:"due_date,omitempty"`
	PeriodStart      *time.Time    `json:"period_start,omitempty"`
	PeriodEnd        *time.Time    `json:"period_end,omitempty"`
	HostedInvoiceURL *string       `json:"hosted_invoice_url,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	AgingDays        *int          `json:"aging_days,omitempty"`
	AgingBucket      string        `json:"aging_bucket"`
	Overdue          bool          `json:"overdue"`
	AtRisk           bool          `json:"at_risk"`
}

// Rollups aggregates the returned page for dashboard chips.
type Rollups struct {
	Buckets map[string]int `json:"buckets"`
	Overdue int            `json:"overdue"`
	AtRisk  int            `json:"atRisk"`
}

// Service lists an organization's invoices with derived display fields.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]View, Rollups, pagination.PageInfo, error)
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus mirrors the provider's invoice lifecycle, upper-cased for local
// storage. Unknown statuses pass through unchanged.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "DRAFT"
	StatusOpen          InvoiceStatus = "OPEN"
	StatusPaid          InvoiceStatus = "PAID"
	StatusUncollectible InvoiceStatus = "UNCOLLECTIBLE"
	StatusVoid          InvoiceStatus = "VOID"
)

// Invoice is the local mirror of one provider-side invoice. Amounts are integer
// minor currency units; partial and over-payments are stored verbatim.
type Invoice struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrgID            snowflake.ID  `gorm:"not null;index" json:"org_id"`
	StripeInvoiceID  string        `gorm:"type:text;not null;uniqueIndex" json:"stripe_invoice_id"`
	Currency         string        `gorm:"type:text;not null;default:'USD'" json:"currency"`
	AmountDue        int64         `gorm:"not null;default:0" json:"amount_due"`
	AmountPaid       int64         `gorm:"not null;default:0" json:"amount_paid"`
	Status           InvoiceStatus `gorm:"type:text;not null" json:"status"`
	DueDate          *time.Time    `gorm:"index" json:"due_date,omitempty"`
	PeriodStart      *time.Time    `json:"period_start,omitempty"`
	PeriodEnd        *time.Time    `json:"period_end,omitempty"`
	HostedInvoiceURL *string       `gorm:"type:text" json:"hosted_invoice_url,omitempty"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

// Outstanding is the unpaid balance, floored at zero so over-payments never
// report as negative receivables.
func (i Invoice) Outstanding() int64 {
	outstanding := i.AmountDue - i.AmountPaid
	if outstanding < 0 {
		return 0
	}
	return outstanding
}

// IsPaid reports whether the invoice needs no further collection.
func (i Invoice) IsPaid() bool {
	return i.AmountPaid >= i.AmountDue || i.Status == StatusPaid
}

package domain

import (
	"context"
	"time"

	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
)

// Kind of dunning notice.
type Kind string

const (
	KindOverdue  Kind = "overdue"
	KindUpcoming Kind = "upcoming"
)

// Result summarizes one dunning run.
type Result struct {
	Scanned  int `json:"scanned"`
	Overdue  int `json:"overdue"`
	Upcoming int `json:"upcoming"`
	Sent     int `json:"sent"`
}

// Service scans open receivables and notifies organization owners.
type Service interface {
	Run(ctx context.Context) (Result, error)
}

// Classify decides whether an invoice needs a notice right now. Paid invoices
// and invoices without a due date never do. The two kinds are mutually
// exclusive: overdue strictly before now, upcoming inside [now, now+window].
func Classify(inv invoicedomain.Invoice, now time.Time, upcomingWindow time.Duration) (Kind, bool) {
	if inv.IsPaid() || inv.DueDate == nil {
		return "", false
	}
	due := *inv.DueDate
	if due.Before(now) {
		if inv.Status == invoicedomain.StatusVoid {
			return "", false
		}
		return KindOverdue, true
	}
	if inv.Status == invoicedomain.StatusOpen && !due.After(now.Add(upcomingWindow)) {
		return KindUpcoming, true
	}
	return "", false
}

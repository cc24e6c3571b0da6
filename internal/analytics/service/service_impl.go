package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/analytics/domain"
	auditdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	subdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// trailingWindow is the KPI lookback shared by summary and dunning stats.
const trailingWindow = 30 * 24 * time.Hour

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Audit auditdomain.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	audit auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("analytics.service"),
		clock: p.Clock,
		audit: p.Audit,
	}
}

func (s *Service) Aging(ctx context.Context, orgID snowflake.ID) (map[string]domain.Bucket, error) {
	var invoices []invoicedomain.Invoice
	if err := s.db.WithContext(ctx).Where("org_id = ?", orgID).Find(&invoices).Error; err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	now := s.clock.Now()
	rollup := map[string]domain.Bucket{
		invoicedomain.Bucket0To30:  {},
		invoicedomain.Bucket31To60: {},
		invoicedomain.Bucket61To90: {},
		invoicedomain.Bucket90Plus: {},
		invoicedomain.BucketNA:     {},
	}

	for _, inv := range invoices {
		days := invoicedomain.AgingDays(inv.DueDate, now)
		key := invoicedomain.AgingBucket(days)
		bucket := rollup[key]
		bucket.Count++
		bucket.Outstanding += inv.Outstanding()
		if inv.IsOverdue(now) {
			bucket.Overdue++
		}
		rollup[key] = bucket
	}
	return rollup, nil
}

func (s *Service) Summary(ctx context.Context, orgID snowflake.ID) (domain.Summary, error) {
	now := s.clock.Now()
	since := now.Add(-trailingWindow)

	type amountRow struct {
		AmountDue  int64
		AmountPaid int64
		Currency   string
	}

	var paidLast30 []amountRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT amount_paid, currency FROM invoices
		 WHERE org_id = ? AND status = ? AND period_end >= ?`,
		orgID, invoicedomain.StatusPaid, since,
	).Scan(&paidLast30).Error
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load paid invoices: %w", err)
	}

	var issuedLast30 []amountRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT amount_due, amount_paid FROM invoices
		 WHERE org_id = ? AND period_end >= ?`,
		orgID, since,
	).Scan(&issuedLast30).Error
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load issued invoices: %w", err)
	}

	var activeCustomers int64
	err = s.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM subscriptions WHERE org_id = ? AND status IN (?, ?, ?)`,
		orgID, subdomain.StatusActive, subdomain.StatusTrialing, subdomain.StatusPastDue,
	).Scan(&activeCustomers).Error
	if err != nil {
		return domain.Summary{}, fmt.Errorf("count active subscriptions: %w", err)
	}

	var receivables []amountRow
	err = s.db.WithContext(ctx).Raw(
		`SELECT amount_due, amount_paid FROM invoices
		 WHERE org_id = ? AND status IN (?, ?)`,
		orgID, invoicedomain.StatusOpen, invoicedomain.StatusUncollectible,
	).Scan(&receivables).Error
	if err != nil {
		return domain.Summary{}, fmt.Errorf("load receivables: %w", err)
	}

	summary := domain.Summary{Currency: "USD", ActiveCustomers: int(activeCustomers)}

	// Naive MRR: cash collected over the trailing window.
	for _, row := range paidLast30 {
		summary.MRR += row.AmountPaid
	}
	summary.ARR = summary.MRR * 12
	if summary.ActiveCustomers > 0 {
		summary.ARPA = float64(summary.MRR) / float64(summary.ActiveCustomers)
	}
	if len(paidLast30) > 0 && paidLast30[0].Currency != "" {
		summary.Currency = strings.ToUpper(paidLast30[0].Currency)
	}

	var due, paid int64
	for _, row := range issuedLast30 {
		due += row.AmountDue
		paid += row.AmountPaid
	}
	if due > 0 {
		summary.CollectionRate = float64(paid) / float64(due)
	}

	// Days sales outstanding: open receivables over average daily sales.
	var ar int64
	for _, row := range receivables {
		ar += row.AmountDue - row.AmountPaid
	}
	if avgDailySales := float64(summary.MRR) / 30; avgDailySales > 0 {
		summary.DSO = float64(ar) / avgDailySales
	}

	return summary, nil
}

func (s *Service) DunningStats(ctx context.Context, orgID snowflake.ID) (domain.DunningStats, error) {
	since := s.clock.Now().Add(-trailingWindow)
	entries, err := s.audit.Recent(ctx, auditdomain.ListFilter{
		OrgID:   orgID,
		Action:  auditdomain.ActionDunningSent,
		StartAt: &since,
		Limit:   10000,
	})
	if err != nil {
		return domain.DunningStats{}, fmt.Errorf("load dunning ledger: %w", err)
	}

	stats := domain.DunningStats{Total: len(entries)}
	for _, entry := range entries {
		switch entry.Metadata["kind"] {
		case "upcoming":
			stats.Upcoming++
		case "overdue":
			stats.Overdue++
		}
		if mocked, ok := entry.Metadata["mocked"].(bool); ok && mocked {
			stats.Mocked++
		}
	}
	return stats, nil
}

package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	auditdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/dunning/domain"
	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/mailer"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/metrics"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ledgerQueryLimit bounds how many of today's audit rows the dedupe check
// loads. One row per (invoice, recipient, kind) per day keeps this small.
const ledgerQueryLimit = 10000

type Params struct {
	fx.In

	Cfg     config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Orgs    orgdomain.Repository
	Audit   auditdomain.Service
	Mailer  mailer.Mailer
	Metrics *metrics.Metrics
}

type Service struct {
	cfg     config.Config
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	orgs    orgdomain.Repository
	audit   auditdomain.Service
	mailer  mailer.Mailer
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:     p.Cfg,
		db:      p.DB,
		log:     p.Log.Named("dunning.service"),
		clock:   p.Clock,
		orgs:    p.Orgs,
		audit:   p.Audit,
		mailer:  p.Mailer,
		metrics: p.Metrics,
	}
}

// Run scans every invoice and mails organization owners for the ones that
// need a notice. At most one notice per (invoice, recipient, kind) goes out per UTC
// day; the audit log is the dedupe ledger, so re-runs within a day are free.
// A failure on one invoice never aborts the rest of the run.
func (s *Service) Run(ctx context.Context) (domain.Result, error) {
	result := domain.Result{}
	now := s.clock.Now()

	// Scanned covers the full invoice table; settled and undated invoices
	// count as scanned and are skipped by classification.
	var invoices []invoicedomain.Invoice
	err := s.db.WithContext(ctx).
		Order("due_date, created_at DESC").
		Find(&invoices).Error
	if err != nil {
		return result, fmt.Errorf("load dunning candidates: %w", err)
	}

	sentToday, err := s.sentTodayLedger(ctx, now)
	if err != nil {
		return result, err
	}

	orgNames := map[string]string{}

	for _, inv := range invoices {
		result.Scanned++

		kind, ok := domain.Classify(inv, now, s.cfg.DunningUpcomingWindow)
		if !ok {
			continue
		}
		switch kind {
		case domain.KindOverdue:
			result.Overdue++
		case domain.KindUpcoming:
			result.Upcoming++
		}

		orgKey := inv.OrgID.String()
		orgName, cached := orgNames[orgKey]
		if !cached {
			org, err := s.orgs.FindByID(ctx, s.db, inv.OrgID)
			if err != nil {
				s.log.Warn("skipping invoice, organization lookup failed",
					zap.String("stripe_invoice_id", inv.StripeInvoiceID),
					zap.Error(err),
				)
				continue
			}
			orgName = org.Name
			orgNames[orgKey] = orgName
		}

		owners, err := s.orgs.OwnerEmails(ctx, s.db, inv.OrgID)
		if err != nil {
			s.log.Warn("skipping invoice, owner lookup failed",
				zap.String("stripe_invoice_id", inv.StripeInvoiceID),
				zap.Error(err),
			)
			continue
		}
		if len(owners) == 0 {
			s.log.Warn("invoice has no owner recipients",
				zap.String("stripe_invoice_id", inv.StripeInvoiceID),
				zap.String("org_id", orgKey),
			)
			continue
		}

		subject, body, err := renderNotice(kind, inv, orgName)
		if err != nil {
			s.log.Warn("skipping invoice, template failure",
				zap.String("stripe_invoice_id", inv.StripeInvoiceID),
				zap.Error(err),
			)
			continue
		}

		for _, to := range owners {
			key := ledgerKey(inv.StripeInvoiceID, to, kind)
			if _, dup := sentToday[key]; dup {
				continue
			}

			res, err := s.mailer.Send(ctx, to, subject, body)
			if err != nil {
				s.log.Warn("notice delivery failed",
					zap.String("stripe_invoice_id", inv.StripeInvoiceID),
					zap.String("to", to),
					zap.Error(err),
				)
				continue
			}

			orgID := inv.OrgID
			s.audit.Log(ctx, &orgID, auditdomain.ActionDunningSent, map[string]any{
				"invoice_id": inv.StripeInvoiceID,
				"to":         to,
				"kind":       string(kind),
				"mocked":     res.Mocked,
			})
			s.metrics.DunningNotifications.WithLabelValues(string(kind), strconv.FormatBool(res.Mocked)).Inc()
			sentToday[key] = struct{}{}
			result.Sent++
		}
	}

	s.log.Info("dunning run finished",
		zap.Int("scanned", result.Scanned),
		zap.Int("overdue", result.Overdue),
		zap.Int("upcoming", result.Upcoming),
		zap.Int("sent", result.Sent),
	)
	return result, nil
}

// sentTodayLedger rebuilds the day's dedupe set from audit rows. Metadata is
// matched in Go so the query stays portable across postgres and sqlite.
func (s *Service) sentTodayLedger(ctx context.Context, now time.Time) (map[string]struct{}, error) {
	dayStart := startOfUTCDay(now)
	entries, err := s.audit.Recent(ctx, auditdomain.ListFilter{
		Action:  auditdomain.ActionDunningSent,
		StartAt: &dayStart,
		Limit:   ledgerQueryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("load dunning ledger: %w", err)
	}

	sent := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		invoiceID, _ := entry.Metadata["invoice_id"].(string)
		to, _ := entry.Metadata["to"].(string)
		kind, _ := entry.Metadata["kind"].(string)
		if invoiceID == "" || to == "" || kind == "" {
			continue
		}
		sent[ledgerKey(invoiceID, to, domain.Kind(kind))] = struct{}{}
	}
	return sent, nil
}

func ledgerKey(invoiceID, to string, kind domain.Kind) string {
	return invoiceID + "|" + to + "|" + string(kind)
}

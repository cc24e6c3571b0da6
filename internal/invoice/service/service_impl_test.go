package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/repository"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db/pagination"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	genID *snowflake.Node
	orgID snowflake.ID
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.Exec(`CREATE TABLE invoices (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		stripe_invoice_id TEXT NOT NULL UNIQUE,
		currency TEXT NOT NULL DEFAULT 'USD',
		amount_due BIGINT NOT NULL DEFAULT 0,
		amount_paid BIGINT NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		due_date DATETIME,
		period_start DATETIME,
		period_end DATETIME,
		hosted_invoice_url TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`).Error
	if err != nil {
		t.Fatalf("apply ddl: %v", err)
	}

	node, err := snowflake.NewNode(6)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	svc := NewService(Params{
		Cfg:   config.Config{DunningUpcomingWindow: 7 * 24 * time.Hour},
		DB:    db,
		Log:   zap.NewNop(),
		Clock: clock.Fixed(now),
		Repo:  repository.Provide(),
	})
	return &fixture{svc: svc, db: db, genID: node, orgID: node.Generate(), now: now}
}

func (f *fixture) seed(t *testing.T, externalID, status string, due *time.Time, amountDue, amountPaid int64) {
	t.Helper()
	err := f.db.Exec(
		`INSERT INTO invoices (id, org_id, stripe_invoice_id, amount_due, amount_paid, status, due_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.genID.Generate(), f.orgID, externalID, amountDue, amountPaid, status, due,
	).Error
	if err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
}

func ptrTime(at time.Time) *time.Time { return &at }

func TestListDerivesViewFields(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "in_overdue", "OPEN", ptrTime(f.now.Add(-72*time.Hour)), 5000, 1000)
	f.seed(t, "in_soon", "OPEN", ptrTime(f.now.Add(48*time.Hour)), 3000, 0)
	f.seed(t, "in_overpaid", "PAID", nil, 1000, 1200)

	views, rollups, _, err := f.svc.List(context.Background(), domain.ListFilter{OrgID: f.orgID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 3 {
		t.Fatalf("expected 3 views, got %d", len(views))
	}

	byID := map[string]domain.View{}
	for _, v := range views {
		byID[v.StripeInvoiceID] = v
	}

	overdue := byID["in_overdue"]
	if !overdue.Overdue || overdue.AtRisk || overdue.Outstanding != 4000 {
		t.Fatalf("unexpected overdue view: %+v", overdue)
	}
	if overdue.AgingDays == nil || *overdue.AgingDays != 3 {
		t.Fatalf("unexpected aging days: %v", overdue.AgingDays)
	}

	soon := byID["in_soon"]
	if soon.Overdue || !soon.AtRisk {
		t.Fatalf("unexpected at-risk view: %+v", soon)
	}

	overpaid := byID["in_overpaid"]
	if overpaid.Outstanding != 0 {
		t.Fatalf("outstanding must floor at zero: %+v", overpaid)
	}
	if overpaid.AgingBucket != domain.BucketNA {
		t.Fatalf("expected n/a bucket, got %s", overpaid.AgingBucket)
	}

	if rollups.Overdue != 1 || rollups.AtRisk != 1 {
		t.Fatalf("unexpected rollups: %+v", rollups)
	}
}

func TestListStatusAndQueryFilters(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "in_open_1", "OPEN", nil, 100, 0)
	f.seed(t, "in_paid_1", "PAID", nil, 100, 100)

	views, _, _, err := f.svc.List(context.Background(), domain.ListFilter{OrgID: f.orgID, Status: "paid"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 || views[0].StripeInvoiceID != "in_paid_1" {
		t.Fatalf("unexpected filtered result: %+v", views)
	}

	views, _, _, err = f.svc.List(context.Background(), domain.ListFilter{OrgID: f.orgID, Status: "ALL", Query: "OPEN_1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 || views[0].StripeInvoiceID != "in_open_1" {
		t.Fatalf("case-insensitive search failed: %+v", views)
	}
}

func TestListCursorPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 5; i++ {
		f.seed(t, fmt.Sprintf("in_%d", i), "OPEN", nil, 100, 0)
	}

	first, _, page, err := f.svc.List(context.Background(), domain.ListFilter{
		OrgID: f.orgID,
		Page:  pagination.Request{Limit: 2},
	})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first) != 2 || !page.HasMore || page.NextCursor == "" {
		t.Fatalf("unexpected first page: %d rows, %+v", len(first), page)
	}

	second, _, page2, err := f.svc.List(context.Background(), domain.ListFilter{
		OrgID: f.orgID,
		Page:  pagination.Request{Limit: 2, Cursor: page.NextCursor},
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second) != 2 || !page2.HasMore {
		t.Fatalf("unexpected second page: %d rows, %+v", len(second), page2)
	}
	// No overlap between pages.
	seen := map[snowflake.ID]bool{}
	for _, v := range append(first, second...) {
		if seen[v.ID] {
			t.Fatalf("duplicate row across pages: %s", v.StripeInvoiceID)
		}
		seen[v.ID] = true
	}

	third, _, page3, err := f.svc.List(context.Background(), domain.ListFilter{
		OrgID: f.orgID,
		Page:  pagination.Request{Limit: 2, Cursor: page2.NextCursor},
	})
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third) != 1 || page3.HasMore {
		t.Fatalf("unexpected last page: %d rows, %+v", len(third), page3)
	}
}

func TestListScopedToOrganization(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "in_mine", "OPEN", nil, 100, 0)

	otherOrg := f.genID.Generate()
	err := f.db.Exec(
		`INSERT INTO invoices (id, org_id, stripe_invoice_id, amount_due, status) VALUES (?, ?, 'in_theirs', 100, 'OPEN')`,
		f.genID.Generate(), otherOrg,
	).Error
	if err != nil {
		t.Fatalf("seed other org invoice: %v", err)
	}

	views, _, _, err := f.svc.List(context.Background(), domain.ListFilter{OrgID: f.orgID})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(views) != 1 || views[0].StripeInvoiceID != "in_mine" {
		t.Fatalf("tenant isolation broken: %+v", views)
	}
}

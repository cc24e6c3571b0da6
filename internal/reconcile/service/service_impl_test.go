package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/repository"
	auditservice "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/service"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	invoicedomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/metrics"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	orgrepository "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/repository"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/reconcile/domain"
	subdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDDL = []string{
	`CREATE TABLE organizations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		plan TEXT NOT NULL DEFAULT 'FREE',
		stripe_customer_id TEXT UNIQUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE subscriptions (
		id INTEGER PRIMARY KEY,
		org_id INTEGER NOT NULL,
		stripe_subscription_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		price_id TEXT,
		current_period_start DATETIME,
		current_period_end DATETIME,
		cancel_at_period_end BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE invoices (
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
	)`,
	`CREATE TABLE audit_logs (
		id INTEGER PRIMARY KEY,
		org_id INTEGER,
		action TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, stmt := range testDDL {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("apply ddl: %v", err)
		}
	}
	return db
}

// fakeProvider is an in-memory providerdomain.Client for engine tests.
type fakeProvider struct {
	orgByCustomer map[string]string
	invoicePages  map[string][][]providerdomain.InvoiceState
	latestSub     map[string]*providerdomain.SubscriptionState
	pageIdx       map[string]int
	listErr       error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		orgByCustomer: map[string]string{},
		invoicePages:  map[string][][]providerdomain.InvoiceState{},
		latestSub:     map[string]*providerdomain.SubscriptionState{},
		pageIdx:       map[string]int{},
	}
}

func (f *fakeProvider) VerifyAndParseEvent(payload []byte, sigHeader string) (*providerdomain.Event, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) ListInvoices(_ context.Context, customerID, cursor string, limit int) ([]providerdomain.InvoiceState, string, error) {
	if f.listErr != nil {
		return nil, "", f.listErr
	}
	pages := f.invoicePages[customerID]
	idx := f.pageIdx[customerID]
	if idx >= len(pages) {
		return nil, "", nil
	}
	f.pageIdx[customerID] = idx + 1
	page := pages[idx]
	next := ""
	if idx+1 < len(pages) {
		next = page[len(page)-1].InvoiceID
	}
	return page, next, nil
}

func (f *fakeProvider) LatestSubscription(_ context.Context, customerID string) (*providerdomain.SubscriptionState, error) {
	return f.latestSub[customerID], nil
}

func (f *fakeProvider) ResolveCustomerOrgID(_ context.Context, customerID string) (string, error) {
	return f.orgByCustomer[customerID], nil
}

func (f *fakeProvider) CreateCustomer(_ context.Context, orgID, orgName, email string) (string, error) {
	return "cus_fake", nil
}

func (f *fakeProvider) NewCheckoutSession(_ context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	return "https://checkout.example/session", nil
}

func (f *fakeProvider) ClearCancelAtPeriodEnd(_ context.Context, subscriptionID string) error {
	return nil
}

type engineFixture struct {
	engine   *Engine
	db       *gorm.DB
	provider *fakeProvider
	genID    *snowflake.Node
	now      time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db := newTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	fake := newFakeProvider()

	audit := auditservice.NewService(auditservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    auditrepository.Provide(),
		Metrics: metrics.NewMetrics(),
	})

	engine := NewEngine(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.Fixed(now),
		Provider: fake,
		Orgs:     orgrepository.Provide(),
		Audit:    audit,
	}).(*Engine)

	return &engineFixture{engine: engine, db: db, provider: fake, genID: node, now: now}
}

func (f *engineFixture) seedOrg(t *testing.T, customerID string) snowflake.ID {
	t.Helper()
	orgID := f.genID.Generate()
	var ref any
	if customerID != "" {
		ref = customerID
	}
	err := f.db.Exec(
		`INSERT INTO organizations (id, name, plan, stripe_customer_id) VALUES (?, ?, 'FREE', ?)`,
		orgID, fmt.Sprintf("org-%d", orgID), ref,
	).Error
	if err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return orgID
}

func subState(customerID, subID, status string) providerdomain.SubscriptionState {
	price := "price_pro"
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	return providerdomain.SubscriptionState{
		SubscriptionID:     subID,
		CustomerID:         customerID,
		Status:             status,
		PriceID:            &price,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
	}
}

func invState(customerID, invID, status string, due *time.Time, amountDue, amountPaid int64) providerdomain.InvoiceState {
	return providerdomain.InvoiceState{
		InvoiceID:  invID,
		CustomerID: customerID,
		Currency:   "USD",
		AmountDue:  amountDue,
		AmountPaid: amountPaid,
		Status:     status,
		DueDate:    due,
		CreatedAt:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *engineFixture) orgPlan(t *testing.T, orgID snowflake.ID) orgdomain.Plan {
	t.Helper()
	var plan string
	if err := f.db.Raw(`SELECT plan FROM organizations WHERE id = ?`, orgID).Scan(&plan).Error; err != nil {
		t.Fatalf("read plan: %v", err)
	}
	return orgdomain.Plan(plan)
}

func TestUpsertSubscriptionIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedOrg(t, "cus_1")

	state := subState("cus_1", "sub_1", "ACTIVE")
	for i := 0; i < 3; i++ {
		if err := f.engine.UpsertSubscription(ctx, state, domain.OriginWebhook, "customer.subscription.updated"); err != nil {
			t.Fatalf("upsert %d: %v", i, err)
		}
	}

	var count int64
	if err := f.db.Raw(`SELECT COUNT(*) FROM subscriptions WHERE stripe_subscription_id = 'sub_1'`).Scan(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}

func TestPlanDerivationAcrossStatuses(t *testing.T) {
	cases := map[string]orgdomain.Plan{
		"INCOMPLETE":         orgdomain.PlanFree,
		"INCOMPLETE_EXPIRED": orgdomain.PlanFree,
		"TRIALING":           orgdomain.PlanPro,
		"ACTIVE":             orgdomain.PlanPro,
		"PAST_DUE":           orgdomain.PlanPro,
		"CANCELED":           orgdomain.PlanFree,
		"UNPAID":             orgdomain.PlanFree,
		"PAUSED":             orgdomain.PlanFree,
	}
	for status, want := range cases {
		if got := subdomain.PlanForStatus(subdomain.SubscriptionStatus(status)); got != want {
			t.Errorf("status %s: expected %s, got %s", status, want, got)
		}
	}
}

func TestTrialingThenActiveUpdatesPlanInPlace(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	orgID := f.seedOrg(t, "cus_1")

	if err := f.engine.UpsertSubscription(ctx, subState("cus_1", "sub_1", "TRIALING"), domain.OriginWebhook, "customer.subscription.created"); err != nil {
		t.Fatalf("trialing upsert: %v", err)
	}
	if plan := f.orgPlan(t, orgID); plan != orgdomain.PlanPro {
		t.Fatalf("after trialing expected PRO, got %s", plan)
	}

	if err := f.engine.UpsertSubscription(ctx, subState("cus_1", "sub_1", "ACTIVE"), domain.OriginWebhook, "customer.subscription.updated"); err != nil {
		t.Fatalf("active upsert: %v", err)
	}

	var rows []subdomain.Subscription
	if err := f.db.Find(&rows).Error; err != nil {
		t.Fatalf("load subscriptions: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one subscription row, got %d", len(rows))
	}
	if rows[0].Status != subdomain.StatusActive {
		t.Fatalf("expected ACTIVE, got %s", rows[0].Status)
	}
	if plan := f.orgPlan(t, orgID); plan != orgdomain.PlanPro {
		t.Fatalf("expected PRO, got %s", plan)
	}
}

func TestCanceledSubscriptionDowngradesPlan(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	orgID := f.seedOrg(t, "cus_1")

	if err := f.engine.UpsertSubscription(ctx, subState("cus_1", "sub_1", "ACTIVE"), domain.OriginSweep, ""); err != nil {
		t.Fatalf("active upsert: %v", err)
	}
	if err := f.engine.UpsertSubscription(ctx, subState("cus_1", "sub_1", "CANCELED"), domain.OriginWebhook, "customer.subscription.deleted"); err != nil {
		t.Fatalf("canceled upsert: %v", err)
	}

	if plan := f.orgPlan(t, orgID); plan != orgdomain.PlanFree {
		t.Fatalf("expected FREE after cancel, got %s", plan)
	}
	// The row survives cancellation with a terminal status value.
	var status string
	if err := f.db.Raw(`SELECT status FROM subscriptions WHERE stripe_subscription_id = 'sub_1'`).Scan(&status).Error; err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != "CANCELED" {
		t.Fatalf("expected CANCELED row, got %s", status)
	}
}

func TestInvoiceUpsertLastWriteWins(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedOrg(t, "cus_1")

	open := invState("cus_1", "in_1", "OPEN", nil, 4900, 0)
	paid := invState("cus_1", "in_1", "PAID", nil, 4900, 4900)

	// Delivery order is not guaranteed; whichever snapshot lands last wins.
	if err := f.engine.UpsertInvoice(ctx, paid, domain.OriginWebhook, "invoice.payment_succeeded"); err != nil {
		t.Fatalf("paid upsert: %v", err)
	}
	if err := f.engine.UpsertInvoice(ctx, open, domain.OriginWebhook, "invoice.finalized"); err != nil {
		t.Fatalf("open upsert: %v", err)
	}

	var row invoicedomain.Invoice
	if err := f.db.Where("stripe_invoice_id = ?", "in_1").First(&row).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if row.Status != invoicedomain.StatusOpen || row.AmountPaid != 0 {
		t.Fatalf("expected last snapshot to win, got %+v", row)
	}
}

func TestWebhookOriginWritesAuditRowSweepDoesNot(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedOrg(t, "cus_1")

	if err := f.engine.UpsertInvoice(ctx, invState("cus_1", "in_hook", "OPEN", nil, 100, 0), domain.OriginWebhook, "invoice.created"); err != nil {
		t.Fatalf("webhook upsert: %v", err)
	}
	if err := f.engine.UpsertInvoice(ctx, invState("cus_1", "in_sweep", "OPEN", nil, 100, 0), domain.OriginSweep, ""); err != nil {
		t.Fatalf("sweep upsert: %v", err)
	}

	var actions []string
	if err := f.db.Raw(`SELECT action FROM audit_logs ORDER BY id`).Scan(&actions).Error; err != nil {
		t.Fatalf("read audit: %v", err)
	}
	if len(actions) != 1 || actions[0] != "invoice.created" {
		t.Fatalf("expected exactly one webhook audit row, got %v", actions)
	}
}

func TestResolveTenantFallsBackToProviderMetadata(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	orgID := f.seedOrg(t, "")
	f.provider.orgByCustomer["cus_new"] = orgID.String()

	if err := f.engine.UpsertInvoice(ctx, invState("cus_new", "in_1", "OPEN", nil, 100, 0), domain.OriginWebhook, "invoice.created"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var backfilled string
	if err := f.db.Raw(`SELECT stripe_customer_id FROM organizations WHERE id = ?`, orgID).Scan(&backfilled).Error; err != nil {
		t.Fatalf("read ref: %v", err)
	}
	if backfilled != "cus_new" {
		t.Fatalf("expected backfilled customer ref, got %q", backfilled)
	}
}

func TestUnresolvedTenant(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	err := f.engine.UpsertInvoice(ctx, invState("cus_ghost", "in_1", "OPEN", nil, 100, 0), domain.OriginWebhook, "invoice.created")
	if !errors.Is(err, domain.ErrUnresolvedTenant) {
		t.Fatalf("expected unresolved tenant, got %v", err)
	}

	err = f.engine.UpsertInvoice(ctx, invState("", "in_2", "OPEN", nil, 100, 0), domain.OriginWebhook, "invoice.created")
	if !errors.Is(err, domain.ErrUnresolvedTenant) {
		t.Fatalf("expected unresolved tenant for empty customer, got %v", err)
	}
}

func TestReconcileAllEmptyProviderState(t *testing.T) {
	f := newEngineFixture(t)
	f.seedOrg(t, "cus_1")

	stats, err := f.engine.ReconcileAll(context.Background())
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if stats.Organizations != 1 || stats.InvoicesUpserted != 0 || stats.SubscriptionsSynced != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestReconcileAllPaginatesAndSyncsSubscription(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.seedOrg(t, "cus_1")

	f.provider.invoicePages["cus_1"] = [][]providerdomain.InvoiceState{
		{
			invState("cus_1", "in_1", "PAID", nil, 100, 100),
			invState("cus_1", "in_2", "OPEN", nil, 200, 0),
		},
		{
			invState("cus_1", "in_3", "OPEN", nil, 300, 0),
		},
	}
	active := subState("cus_1", "sub_1", "ACTIVE")
	f.provider.latestSub["cus_1"] = &active

	stats, err := f.engine.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll: %v", err)
	}
	if stats.Organizations != 1 || stats.InvoicesUpserted != 3 || stats.SubscriptionsSynced != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	var invoiceCount, auditCount int64
	if err := f.db.Raw(`SELECT COUNT(*) FROM invoices`).Scan(&invoiceCount).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoiceCount != 3 {
		t.Fatalf("expected 3 invoices, got %d", invoiceCount)
	}
	if err := f.db.Raw(`SELECT COUNT(*) FROM audit_logs`).Scan(&auditCount).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 0 {
		t.Fatalf("sweep must not audit, got %d rows", auditCount)
	}
}

func TestReconcileAllPropagatesProviderFailure(t *testing.T) {
	f := newEngineFixture(t)
	f.seedOrg(t, "cus_1")
	f.provider.listErr = fmt.Errorf("rate limited: %w", providerdomain.ErrTransient)

	_, err := f.engine.ReconcileAll(context.Background())
	if !errors.Is(err, providerdomain.ErrTransient) {
		t.Fatalf("expected transient error to propagate, got %v", err)
	}
}

func TestSyncOrganizationPullsLatestState(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	orgID := f.seedOrg(t, "cus_1")

	sub := subState("cus_1", "sub_1", "ACTIVE")
	f.provider.latestSub["cus_1"] = &sub
	due := f.now.AddDate(0, 0, 14)
	f.provider.invoicePages["cus_1"] = [][]providerdomain.InvoiceState{
		{invState("cus_1", "in_1", "OPEN", &due, 5000, 0)},
	}

	if err := f.engine.SyncOrganization(ctx, orgID); err != nil {
		t.Fatalf("SyncOrganization: %v", err)
	}

	var subCount, invoiceCount, auditCount int64
	if err := f.db.Raw(`SELECT COUNT(*) FROM subscriptions WHERE stripe_subscription_id = 'sub_1'`).Scan(&subCount).Error; err != nil {
		t.Fatalf("count subs: %v", err)
	}
	if subCount != 1 {
		t.Fatalf("expected subscription row, got %d", subCount)
	}
	if err := f.db.Raw(`SELECT COUNT(*) FROM invoices WHERE stripe_invoice_id = 'in_1'`).Scan(&invoiceCount).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoiceCount != 1 {
		t.Fatalf("expected invoice row, got %d", invoiceCount)
	}
	if got := f.orgPlan(t, orgID); got != orgdomain.PlanPro {
		t.Fatalf("expected PRO plan, got %s", got)
	}
	if err := f.db.Raw(`SELECT COUNT(*) FROM audit_logs`).Scan(&auditCount).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 0 {
		t.Fatalf("manual sync must not audit, got %d rows", auditCount)
	}
}

func TestSyncOrganizationWithoutCustomerRef(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.seedOrg(t, "")

	if err := f.engine.SyncOrganization(context.Background(), orgID); err == nil {
		t.Fatal("expected an error for an organization without a customer reference")
	}
}

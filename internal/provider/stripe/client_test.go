package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	stripe "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(config.Config{
		StripeSecretKey:     "sk_test_x",
		StripeWebhookSecret: testWebhookSecret,
	}, zap.NewNop())
	return c.(*Client)
}

// signPayload produces a header in the provider's "t=...,v1=..." format with a
// fresh timestamp so the tolerance check passes.
func signPayload(payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, object string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"api_version": %q,
		"type": %q,
		"data": {"object": %s}
	}`, stripe.APIVersion, eventType, object))
}

func TestVerifyAndParseSubscriptionEvent(t *testing.T) {
	c := newTestClient(t)
	payload := eventPayload("customer.subscription.updated", `{
		"id": "sub_123",
		"customer": {"id": "cus_123"},
		"status": "past_due",
		"cancel_at_period_end": false,
		"items": {"data": [{"price": {"id": "price_pro"}, "current_period_start": 1700000000, "current_period_end": 1702592000}]}
	}`)

	event, err := c.VerifyAndParseEvent(payload, signPayload(payload))
	if err != nil {
		t.Fatalf("VerifyAndParseEvent: %v", err)
	}
	if event.Category != providerdomain.CategorySubscription {
		t.Fatalf("expected subscription category, got %s", event.Category)
	}
	if event.Subscription == nil || event.Subscription.SubscriptionID != "sub_123" {
		t.Fatalf("unexpected subscription state: %+v", event.Subscription)
	}
	if event.Subscription.Status != "PAST_DUE" {
		t.Fatalf("expected PAST_DUE, got %s", event.Subscription.Status)
	}
}

func TestVerifyAndParseInvoiceEvent(t *testing.T) {
	c := newTestClient(t)
	payload := eventPayload("invoice.payment_failed", `{
		"id": "in_123",
		"customer": {"id": "cus_123"},
		"currency": "usd",
		"amount_due": 4900,
		"amount_paid": 0,
		"status": "open",
		"due_date": 1700000000,
		"created": 1699990000
	}`)

	event, err := c.VerifyAndParseEvent(payload, signPayload(payload))
	if err != nil {
		t.Fatalf("VerifyAndParseEvent: %v", err)
	}
	if event.Category != providerdomain.CategoryInvoice {
		t.Fatalf("expected invoice category, got %s", event.Category)
	}
	if event.Invoice == nil || event.Invoice.InvoiceID != "in_123" {
		t.Fatalf("unexpected invoice state: %+v", event.Invoice)
	}
	if event.Invoice.Status != "OPEN" || event.Invoice.Currency != "USD" {
		t.Fatalf("unexpected normalization: %+v", event.Invoice)
	}
}

func TestVerifyAndParseIgnoredEvent(t *testing.T) {
	c := newTestClient(t)
	payload := eventPayload("charge.refunded", `{"id": "ch_1"}`)

	event, err := c.VerifyAndParseEvent(payload, signPayload(payload))
	if err != nil {
		t.Fatalf("VerifyAndParseEvent: %v", err)
	}
	if event.Category != providerdomain.CategoryIgnored {
		t.Fatalf("expected ignored category, got %s", event.Category)
	}
	if event.Subscription != nil || event.Invoice != nil {
		t.Fatal("ignored events must not carry state")
	}
}

func TestVerifyAndParseRejectsBadSignature(t *testing.T) {
	c := newTestClient(t)
	payload := eventPayload("invoice.created", `{"id": "in_1"}`)

	if _, err := c.VerifyAndParseEvent(payload, "t=1,v1=deadbeef"); !errors.Is(err, providerdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
	if _, err := c.VerifyAndParseEvent(payload, ""); !errors.Is(err, providerdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error for empty header, got %v", err)
	}
}

func TestVerifyAndParseRejectsTamperedPayload(t *testing.T) {
	c := newTestClient(t)
	payload := eventPayload("invoice.created", `{"id": "in_1"}`)
	header := signPayload(payload)
	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = 'x'

	if _, err := c.VerifyAndParseEvent(tampered, header); !errors.Is(err, providerdomain.ErrInvalidSignature) {
		t.Fatalf("expected invalid signature error, got %v", err)
	}
}

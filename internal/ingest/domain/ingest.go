package domain

import "context"

// Outcome is the terminal disposition of one inbound provider event. All three
// acknowledge the delivery; only signature failures and internal errors are
// surfaced as errors so the provider retries them.
type Outcome string

const (
	// OutcomeApplied: the event changed (or idempotently re-wrote) local state.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored: an event type this system does not process.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeSkipped: a recognized event that cannot be applied (unresolvable
	// tenant, unusable payload). Retrying the delivery would not help.
	OutcomeSkipped Outcome = "skipped"
)

// Service is the webhook ingestion gateway.
type Service interface {
	IngestEvent(ctx context.Context, payload []byte, sigHeader string) (Outcome, error)
}

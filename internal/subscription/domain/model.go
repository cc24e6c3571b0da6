package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
)

// SubscriptionStatus mirrors the provider's subscription lifecycle, upper-cased
// for local storage. Unknown provider statuses are stored as-is so newer SDK
// versions cannot break ingestion.
type SubscriptionStatus string

const (
	StatusIncomplete        SubscriptionStatus = "INCOMPLETE"
	StatusIncompleteExpired SubscriptionStatus = "INCOMPLETE_EXPIRED"
	StatusTrialing          SubscriptionStatus = "TRIALING"
	StatusActive            SubscriptionStatus = "ACTIVE"
	StatusPastDue           SubscriptionStatus = "PAST_DUE"
	StatusCanceled          SubscriptionStatus = "CANCELED"
	StatusUnpaid            SubscriptionStatus = "UNPAID"
	StatusPaused            SubscriptionStatus = "PAUSED"
)

// Subscription is the local mirror of one provider-side subscription. Rows are
// created on first sight and updated on every later sight; a canceled
// subscription keeps its row with a terminal status value.
type Subscription struct {
	ID                   snowflake.ID       `gorm:"primaryKey" json:"id"`
	OrgID                snowflake.ID       `gorm:"not null;index" json:"org_id"`
	StripeSubscriptionID string             `gorm:"type:text;not null;uniqueIndex" json:"stripe_subscription_id"`
	Status               SubscriptionStatus `gorm:"type:text;not null" json:"status"`
	PriceID              *string            `gorm:"type:text" json:"price_id,omitempty"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CreatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

// PlanForStatus derives the tenant plan tier from a subscription status.
// Exactly the paying cohort (active, trialing, past_due) maps to PRO.
func PlanForStatus(status SubscriptionStatus) orgdomain.Plan {
	switch status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return orgdomain.PlanPro
	default:
		return orgdomain.PlanFree
	}
}

package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service drives plan upgrades through the provider's hosted surfaces.
type Service interface {
	// Checkout ensures the organization has a provider customer and returns
	// the hosted checkout URL for the PRO plan.
	Checkout(ctx context.Context, orgID snowflake.ID, userEmail string) (string, error)
	// Resume clears cancel-at-period-end on the organization's most recent
	// subscription, provider side and locally. Returns false when there is no
	// subscription to resume.
	Resume(ctx context.Context, orgID snowflake.ID) (bool, error)
}

// ErrPriceNotConfigured: checkout requested without a configured price id.
var ErrPriceNotConfigured = errors.New("price_not_configured")

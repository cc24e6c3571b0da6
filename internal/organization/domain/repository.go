package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CustomerRef pairs an organization with its provider customer reference.
type CustomerRef struct {
	OrgID            snowflake.ID
	StripeCustomerID string
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Organization, error)
	FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Organization, error)
	// SetCustomerID records the provider customer reference; it refuses to
	// overwrite a different existing reference (one ref per tenant).
	SetCustomerID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, customerID string) error
	// SetPlan updates the cached plan tier. Callers run it inside the same
	// transaction as the subscription upsert that derived the plan.
	SetPlan(ctx context.Context, db *gorm.DB, orgID snowflake.ID, plan Plan) error
	// ListCustomerRefs returns every organization with a known provider customer.
	ListCustomerRefs(ctx context.Context, db *gorm.DB) ([]CustomerRef, error)
	// OwnerEmails returns the emails of members holding the OWNER role.
	OwnerEmails(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]string, error)
}

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrCustomerRefConflict  = errors.New("customer_ref_conflict")
)

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan is the cached tier projection derived from subscription status.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// Role of a member inside an organization.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleMember Role = "MEMBER"
)

// Organization is a billing tenant. Plan is derived state, never edited directly;
// StripeCustomerID stays nil until the first checkout creates a provider customer.
type Organization struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Name             string       `gorm:"type:text;not null" json:"name"`
	Plan             Plan         `gorm:"type:text;not null;default:'FREE'" json:"plan"`
	StripeCustomerID *string      `gorm:"type:text;uniqueIndex" json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Organization) TableName() string { return "organizations" }

// User is an account that can belong to organizations.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Email       string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	DisplayName string       `gorm:"type:text;not null;default:''" json:"display_name"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (User) TableName() string { return "users" }

// OrganizationMember links a user to an organization with a role.
type OrganizationMember struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"org_id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Role      Role         `gorm:"type:text;not null;default:'MEMBER'" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OrganizationMember) TableName() string { return "organization_members" }

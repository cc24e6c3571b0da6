package auth

import (
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
)

// Session is an opaque bearer token row. Tokens are minted elsewhere; this
// service only resolves them.
type Session struct {
	Token     string       `gorm:"primaryKey;type:text"`
	UserID    snowflake.ID `gorm:"not null;index"`
	ExpiresAt time.Time    `gorm:"not null"`
}

func (Session) TableName() string { return "sessions" }

// Membership is one org the authenticated user belongs to.
type Membership struct {
	OrgID snowflake.ID   `json:"org_id"`
	Role  orgdomain.Role `json:"role"`
}

// AuthedUser is the resolved identity behind a session token.
type AuthedUser struct {
	ID          snowflake.ID `json:"id"`
	Email       string       `json:"email"`
	DisplayName string       `json:"display_name"`
	Memberships []Membership `json:"memberships"`
}

// Membership returns the user's membership in the given org, if any.
func (u *AuthedUser) Membership(orgID snowflake.ID) (Membership, bool) {
	for _, m := range u.Memberships {
		if m.OrgID == orgID {
			return m, true
		}
	}
	return Membership{}, false
}

// IsOwner reports whether the user holds the OWNER role in the given org.
func (u *AuthedUser) IsOwner(orgID snowflake.ID) bool {
	m, ok := u.Membership(orgID)
	return ok && m.Role == orgdomain.RoleOwner
}

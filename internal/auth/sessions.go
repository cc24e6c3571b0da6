package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrUnauthenticated: the token is missing, unknown, or expired.
var ErrUnauthenticated = errors.New("unauthenticated")

// Sessions resolves bearer tokens to users with their memberships.
type Sessions interface {
	Resolve(ctx context.Context, token string) (*AuthedUser, error)
}

type sessions struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewSessions(db *gorm.DB, log *zap.Logger, clk clock.Clock) Sessions {
	return &sessions{db: db, log: log.Named("auth.sessions"), clock: clk}
}

func (s *sessions) Resolve(ctx context.Context, token string) (*AuthedUser, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	var session Session
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !session.ExpiresAt.After(s.clock.Now()) {
		return nil, ErrUnauthenticated
	}

	var user orgdomain.User
	if err := s.db.WithContext(ctx).Where("id = ?", session.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}

	var memberships []Membership
	err = s.db.WithContext(ctx).Raw(
		`SELECT org_id, role FROM organization_members WHERE user_id = ? ORDER BY created_at`,
		user.ID,
	).Scan(&memberships).Error
	if err != nil {
		return nil, err
	}

	return &AuthedUser{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Memberships: memberships,
	}, nil
}

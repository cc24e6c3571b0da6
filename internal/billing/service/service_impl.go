package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/billing/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	providerdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/provider/domain"
	subdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg      config.Config
	DB       *gorm.DB
	Log      *zap.Logger
	Provider providerdomain.Client
	Orgs     orgdomain.Repository
}

type Service struct {
	cfg      config.Config
	db       *gorm.DB
	log      *zap.Logger
	provider providerdomain.Client
	orgs     orgdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:      p.Cfg,
		db:       p.DB,
		log:      p.Log.Named("billing.service"),
		provider: p.Provider,
		orgs:     p.Orgs,
	}
}

func (s *Service) Checkout(ctx context.Context, orgID snowflake.ID, userEmail string) (string, error) {
	if strings.TrimSpace(s.cfg.StripePriceIDProMonthly) == "" {
		return "", domain.ErrPriceNotConfigured
	}

	org, err := s.orgs.FindByID(ctx, s.db, orgID)
	if err != nil {
		return "", err
	}

	customerID, err := s.ensureCustomer(ctx, org, userEmail)
	if err != nil {
		return "", err
	}

	base := strings.TrimRight(s.cfg.AppBaseURL, "/")
	successURL := fmt.Sprintf("%s/billing/success?session_id={CHECKOUT_SESSION_ID}&orgId=%s", base, org.ID)
	cancelURL := base + "/pricing"

	url, err := s.provider.NewCheckoutSession(ctx, customerID, s.cfg.StripePriceIDProMonthly, successURL, cancelURL)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return url, nil
}

// ensureCustomer returns the organization's provider customer id, creating and
// recording one on first checkout.
func (s *Service) ensureCustomer(ctx context.Context, org *orgdomain.Organization, userEmail string) (string, error) {
	if org.StripeCustomerID != nil && *org.StripeCustomerID != "" {
		return *org.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, org.ID.String(), org.Name, userEmail)
	if err != nil {
		return "", fmt.Errorf("create provider customer: %w", err)
	}
	if err := s.orgs.SetCustomerID(ctx, s.db, org.ID, customerID); err != nil {
		// A concurrent checkout may have won the race with a different
		// customer; that one is authoritative.
		if errors.Is(err, orgdomain.ErrCustomerRefConflict) {
			fresh, ferr := s.orgs.FindByID(ctx, s.db, org.ID)
			if ferr == nil && fresh.StripeCustomerID != nil {
				return *fresh.StripeCustomerID, nil
			}
		}
		return "", fmt.Errorf("record customer ref: %w", err)
	}

	s.log.Info("provider customer created",
		zap.String("org_id", org.ID.String()),
		zap.String("stripe_customer_id", customerID),
	)
	return customerID, nil
}

func (s *Service) Resume(ctx context.Context, orgID snowflake.ID) (bool, error) {
	var sub subdomain.Subscription
	err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load subscription: %w", err)
	}

	// Provider state is repaired by the next webhook or sweep even if this
	// call fails, so the local flag is cleared regardless.
	if err := s.provider.ClearCancelAtPeriodEnd(ctx, sub.StripeSubscriptionID); err != nil {
		s.log.Warn("provider resume failed",
			zap.String("stripe_subscription_id", sub.StripeSubscriptionID),
			zap.Error(err),
		)
	}

	err = s.db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET cancel_at_period_end = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE stripe_subscription_id = ?`,
		false, sub.StripeSubscriptionID,
	).Error
	if err != nil {
		return false, fmt.Errorf("clear local cancel flag: %w", err)
	}
	return true, nil
}

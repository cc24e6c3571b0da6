package service

import (
	"context"

	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg   config.Config
	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		cfg:   p.Cfg,
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.View, domain.Rollups, pagination.PageInfo, error) {
	rows, info, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, domain.Rollups{}, pagination.PageInfo{}, err
	}

	now := s.clock.Now()
	rollups := domain.Rollups{Buckets: map[string]int{
		domain.Bucket0To30:  0,
		domain.Bucket31To60: 0,
		domain.Bucket61To90: 0,
		domain.Bucket90Plus: 0,
		domain.BucketNA:     0,
	}}

	views := make([]domain.View, 0, len(rows))
	for _, inv := range rows {
		days := domain.AgingDays(inv.DueDate, now)
		bucket := domain.AgingBucket(days)
		view := domain.View{
			ID:               inv.ID,
			StripeInvoiceID:  inv.StripeInvoiceID,
			Currency:         inv.Currency,
			AmountDue:        inv.AmountDue,
			AmountPaid:       inv.AmountPaid,
			Outstanding:      inv.Outstanding(),
			Status:           inv.Status,
			DueDate:          inv.DueDate,
			PeriodStart:      inv.PeriodStart,
			PeriodEnd:        inv.PeriodEnd,
			HostedInvoiceURL: inv.HostedInvoiceURL,
			CreatedAt:        inv.CreatedAt,
			AgingDays:        days,
			AgingBucket:      bucket,
			Overdue:          inv.IsOverdue(now),
			AtRisk:           inv.IsAtRisk(now, s.cfg.DunningUpcomingWindow),
		}
		rollups.Buckets[bucket]++
		if view.Overdue {
			rollups.Overdue++
		}
		if view.AtRisk {
			rollups.AtRisk++
		}
		views = append(views, view)
	}
	return views, rollups, info, nil
}

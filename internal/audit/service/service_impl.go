package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/audit/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("audit.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Log appends one audit entry. A failed insert never fails the caller: the
// entry is dropped, logged at Warn, and counted so the loss stays observable.
func (s *Service) Log(ctx context.Context, orgID *snowflake.ID, action string, metadata map[string]any) {
	payload := datatypes.JSONMap{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}

	entry := &domain.AuditLog{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Action:    action,
		Metadata:  payload,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.metrics.AuditLogWriteFailures.Inc()
		s.log.Warn("audit log write failed",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func (s *Service) Recent(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}

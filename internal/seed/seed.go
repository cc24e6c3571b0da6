package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/clock"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/config"
	orgdomain "github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	demoOrgName   = "Demo Org"
	demoUserEmail = "owner@demo.local"
	// devSessionToken is a fixed bearer token for local dashboards and curl.
	devSessionToken = "dev-session-token"
)

var Module = fx.Module("seed",
	fx.Invoke(Register),
)

// Register seeds a demo organization with an OWNER and a long-lived session
// on startup. Production environments never seed.
func Register(lc fx.Lifecycle, cfg config.Config, db *gorm.DB, log *zap.Logger, genID *snowflake.Node, clk clock.Clock) {
	if cfg.IsProduction() {
		return
	}
	log = log.Named("seed")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return ensureDemoOrg(ctx, db, log, genID, clk)
		},
	})
}

func ensureDemoOrg(ctx context.Context, db *gorm.DB, log *zap.Logger, genID *snowflake.Node, clk clock.Clock) error {
	var org orgdomain.Organization
	err := db.WithContext(ctx).Where("name = ?", demoOrgName).First(&org).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		org = orgdomain.Organization{
			ID:   genID.Generate(),
			Name: demoOrgName,
			Plan: orgdomain.PlanFree,
		}
		if err := db.WithContext(ctx).Create(&org).Error; err != nil {
			return err
		}
	}

	var user orgdomain.User
	err = db.WithContext(ctx).Where("email = ?", demoUserEmail).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = orgdomain.User{
			ID:          genID.Generate(),
			Email:       demoUserEmail,
			DisplayName: "Demo Owner",
		}
		if err := db.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}
	}

	err = db.WithContext(ctx).Exec(
		`INSERT INTO organization_members (id, org_id, user_id, role)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (org_id, user_id) DO NOTHING`,
		genID.Generate(), org.ID, user.ID, orgdomain.RoleOwner,
	).Error
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Exec(
		`INSERT INTO sessions (token, user_id, expires_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (token) DO UPDATE SET user_id = excluded.user_id, expires_at = excluded.expires_at`,
		devSessionToken, user.ID, clk.Now().Add(30*24*time.Hour),
	).Error
	if err != nil {
		return err
	}

	log.Info("demo organization ready",
		zap.String("org_id", org.ID.String()),
		zap.String("owner_email", demoUserEmail),
	)
	return nil
}

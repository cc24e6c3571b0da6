package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct{}

// Provide returns the gorm-backed organization repository.
func Provide() domain.Repository {
	return repository{}
}

func (repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Organization, error) {
	var org domain.Organization
	err := db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (repository) FindByCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*domain.Organization, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrOrganizationNotFound
	}
	var org domain.Organization
	err := db.WithContext(ctx).Where("stripe_customer_id = ?", customerID).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (repository) SetCustomerID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, customerID string) error {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return domain.ErrCustomerRefConflict
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE organizations
		 SET stripe_customer_id = ?, updated_at = ?
		 WHERE id = ? AND (stripe_customer_id IS NULL OR stripe_customer_id = ?)`,
		customerID,
		time.Now().UTC(),
		orgID,
		customerID,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrCustomerRefConflict
	}
	return nil
}

func (repository) SetPlan(ctx context.Context, db *gorm.DB, orgID snowflake.ID, plan domain.Plan) error {
	return db.WithContext(ctx).Exec(
		`UPDATE organizations SET plan = ?, updated_at = ? WHERE id = ?`,
		plan,
		time.Now().UTC(),
		orgID,
	).Error
}

func (repository) ListCustomerRefs(ctx context.Context, db *gorm.DB) ([]domain.CustomerRef, error) {
	var refs []domain.CustomerRef
	err := db.WithContext(ctx).Raw(
		`SELECT id AS org_id, stripe_customer_id
		 FROM organizations
		 WHERE stripe_customer_id IS NOT NULL
		 ORDER BY id`,
	).Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (repository) OwnerEmails(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]string, error) {
	var emails []string
	err := db.WithContext(ctx).Raw(
		`SELECT u.email
		 FROM organization_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.org_id = ? AND m.role = ?
		 ORDER BY u.email`,
		orgID,
		domain.RoleOwner,
	).Scan(&emails).Error
	if err != nil {
		return nil, err
	}
	out := emails[:0]
	for _, email := range emails {
		if strings.TrimSpace(email) != "" {
			out = append(out, email)
		}
	}
	return out, nil
}

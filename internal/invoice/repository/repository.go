package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/internal/invoice/domain"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct{}

// Provide returns the gorm-backed invoice repository.
func Provide() domain.Repository {
	return repository{}
}

func (repository) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Invoice, pagination.PageInfo, error) {
	page := filter.Page.Normalize()

	q := db.WithContext(ctx).Where("org_id = ?", filter.OrgID)
	if status := filter.StatusFilter(); status != "" {
		q = q.Where("status = ?", status)
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		q = q.Where("(LOWER(stripe_invoice_id) LIKE LOWER(?) OR LOWER(currency) LIKE LOWER(?))", pattern, pattern)
	}
	if page.Cursor != "" {
		cursor, err := snowflake.ParseString(page.Cursor)
		if err == nil {
			q = q.Where("id < ?", cursor)
		}
	}

	var rows []domain.Invoice
	if err := q.Order("id DESC").Limit(page.Limit + 1).Find(&rows).Error; err != nil {
		return nil, pagination.PageInfo{}, err
	}

	info := pagination.PageInfo{}
	if len(rows) > page.Limit {
		rows = rows[:page.Limit]
		info.HasMore = true
		info.NextCursor = rows[len(rows)-1].ID.String()
	}
	return rows, info, nil
}

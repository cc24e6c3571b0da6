package domain

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/fidelisnguakaaga20/stripe-revenue-copilot/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows an organization's invoice listing.
type ListFilter struct {
	OrgID snowflake.ID
	// Status filters by exact status; "" or "ALL" disables the filter.
	Status string
	// Query matches the external invoice id or currency, case-insensitive.
	Query string
	Page  pagination.Request
}

// StatusFilter returns the effective status filter, "" when disabled.
func (f ListFilter) StatusFilter() string {
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	if status == "ALL" {
		return ""
	}
	return status
}

type Repository interface {
	// List returns one page of the organization's invoices, newest first.
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Invoice, pagination.PageInfo, error)
}

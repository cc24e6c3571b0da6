package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Bucket aggregates one aging band.
type Bucket struct {
	Count       int   `json:"count"`
	Outstanding int64 `json:"outstanding"`
	Overdue     int   `json:"overdue"`
}

// Summary carries the dashboard KPIs. Monetary values are integer minor
// currency units; MRR is approximated as cash collected over the trailing
// 30 days.
type Summary struct {
	Currency        string  `json:"currency"`
	MRR             int64   `json:"MRR"`
	ARR             int64   `json:"ARR"`
	ActiveCustomers int     `json:"activeCustomers"`
	ARPA            float64 `json:"ARPA"`
	CollectionRate  float64 `json:"collectionRate"`
	DSO             float64 `json:"DSO"`
}

// DunningStats counts notices sent over the trailing 30 days.
type DunningStats struct {
	Total    int `json:"total"`
	Upcoming int `json:"upcoming"`
	Overdue  int `json:"overdue"`
	Mocked   int `json:"mocked"`
}

// Service computes receivables analytics for one organization.
type Service interface {
	// Aging rolls every invoice into days-past-due buckets, outstanding
	// amounts floored at zero.
	Aging(ctx context.Context, orgID snowflake.ID) (map[string]Bucket, error)
	Summary(ctx context.Context, orgID snowflake.ID) (Summary, error)
	DunningStats(ctx context.Context, orgID snowflake.ID) (DunningStats, error)
}

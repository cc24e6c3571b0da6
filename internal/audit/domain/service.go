package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Service appends audit entries. Implementations must treat write failures as
// non-fatal to the caller's primary operation: the error is logged, counted,
// and swallowed.
type Service interface {
	Log(ctx context.Context, orgID *snowflake.ID, action string, metadata map[string]any)
	// Recent lists matching entries, newest first.
	Recent(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

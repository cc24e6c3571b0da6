package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Well-known audit actions written by the core.
const (
	ActionDunningSent = "dunning.sent"
)

// AuditLog is one immutable trace entry. OrgID is nil for system-level events.
// The core only ever appends; pruning is an operational concern elsewhere.
type AuditLog struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	OrgID     *snowflake.ID     `gorm:"index"`
	Action    string            `gorm:"type:text;not null;index"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (AuditLog) TableName() string { return "audit_logs" }

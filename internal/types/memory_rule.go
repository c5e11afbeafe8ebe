package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemoryRule is a durable per-user preference the coach has learned,
// e.g. "prefers coding tasks in the morning". Rules are injected into
// plan generation prompts until deactivated.
type MemoryRule struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Rule      string         `gorm:"column:rule;not null" json:"rule"`
	Source    string         `gorm:"column:source;not null;default:'checkin'" json:"source"`
	IsActive  bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (MemoryRule) TableName() string { return "memory_rule" }

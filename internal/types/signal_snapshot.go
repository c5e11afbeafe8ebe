package types

import (
	"time"

	"github.com/google/uuid"
)

// User status values produced by the classifier.
const (
	StatusActive     = "active"
	StatusAtRisk     = "at_risk"
	StatusRecovering = "recovering"
)

// SignalSnapshot records the three computed signals and the resulting
// status at a point in time. Snapshots are append-only; the newest row
// per user is the current status.
type SignalSnapshot struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_signal_user_created" json:"user_id"`
	AdherenceRate  float64   `gorm:"column:adherence_rate;not null" json:"adherence_rate"`
	KnowledgeScore float64   `gorm:"column:knowledge_score;not null" json:"knowledge_score"`
	RetentionScore float64   `gorm:"column:retention_score;not null" json:"retention_score"`
	Status         string    `gorm:"column:status;not null;default:'active'" json:"status"`
	CreatedAt      time.Time `gorm:"not null;default:now();index:idx_signal_user_created" json:"created_at"`
}

func (SignalSnapshot) TableName() string { return "signal_snapshot" }

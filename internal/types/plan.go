package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Plan is one week's schedule for a commitment. At most one active plan per
// (commitment, week); force regeneration deactivates the prior version and
// writes a new row with a bumped Version.
type Plan struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CommitmentID uuid.UUID      `gorm:"type:uuid;not null;index:idx_plan_commitment_week" json:"commitment_id"`
	Commitment   *Commitment    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CommitmentID;references:ID" json:"commitment,omitempty"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	WeekIndex    int            `gorm:"column:week_index;not null;index:idx_plan_commitment_week" json:"week_index"`
	WeekStart    time.Time      `gorm:"column:week_start;type:date;not null" json:"week_start"`
	WeekFocus    string         `gorm:"column:week_focus;not null" json:"week_focus"`
	MicroProject string         `gorm:"column:micro_project" json:"micro_project,omitempty"`
	ReviewTopics datatypes.JSON `gorm:"type:jsonb;column:review_topics" json:"review_topics"`
	Version      int            `gorm:"column:version;not null;default:1" json:"version"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Tasks []*DailyTask `gorm:"foreignKey:PlanID;references:ID" json:"tasks,omitempty"`
}

func (Plan) TableName() string { return "plan" }

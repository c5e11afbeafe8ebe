package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskTypeReading = "reading"
	TaskTypeCoding  = "coding"
	TaskTypeReview  = "review"
)

const (
	TaskStatusPending   = "pending"
	TaskStatusCompleted = "completed"
)

// DailyTask is a single scheduled unit of work inside a weekly plan. Tasks
// are never deleted; a superseded plan takes its tasks out of scope with it.
type DailyTask struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"plan_id"`
	Plan        *Plan          `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"plan,omitempty"`
	Date        time.Time      `gorm:"column:date;type:date;not null;index" json:"date"`
	Task        string         `gorm:"column:task;not null" json:"task"`
	TimeboxMin  int            `gorm:"column:timebox_min;not null" json:"timebox_min"`
	TaskType    string         `gorm:"column:task_type;not null;default:'reading'" json:"type"`
	Status      string         `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Priority    int            `gorm:"column:priority;not null;default:3" json:"priority"`
	CompletedAt *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (DailyTask) TableName() string { return "daily_task" }

func ValidTaskType(t string) bool {
	switch t {
	case TaskTypeReading, TaskTypeCoding, TaskTypeReview:
		return true
	}
	return false
}

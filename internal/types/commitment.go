package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BaselineBeginner     = "beginner"
	BaselineIntermediate = "intermediate"
	BaselineAdvanced     = "advanced"
)

const (
	LearningStyleMixed   = "mixed"
	LearningStyleCoding  = "coding"
	LearningStyleReading = "reading"
)

// Commitment is the user's learning contract. It is immutable after creation;
// "starting over" deactivates it and creates a fresh one.
type Commitment struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Goal             string         `gorm:"column:goal;not null" json:"goal"`
	TargetDate       time.Time      `gorm:"column:target_date;type:date;not null" json:"target_date"`
	BaselineLevel    string         `gorm:"column:baseline_level;not null;default:'beginner'" json:"baseline_level"`
	WeeklyHours      int            `gorm:"column:weekly_hours;not null" json:"weekly_hours"`
	LearningStyle    string         `gorm:"column:learning_style;not null;default:'mixed'" json:"learning_style"`
	PremortemReasons datatypes.JSON `gorm:"type:jsonb;column:premortem_reasons" json:"premortem_reasons"`
	IsActive         bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Commitment) TableName() string { return "commitment" }

// CurrentWeek returns the 1-based week index of the commitment as of the
// given day.
func (c *Commitment) CurrentWeek(today time.Time) int {
	days := int(today.Sub(c.CreatedAt) / (24 * time.Hour))
	week := days/7 + 1
	if week < 1 {
		week = 1
	}
	return week
}

// WeeksRemaining returns whole weeks left until the target date, floored at 0.
func (c *Commitment) WeeksRemaining(today time.Time) int {
	days := int(c.TargetDate.Sub(today) / (24 * time.Hour))
	weeks := days / 7
	if weeks < 0 {
		weeks = 0
	}
	return weeks
}

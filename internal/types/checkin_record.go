package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CheckinRecord is the daily self-report plus the decision it produced.
// One row per (user, date); a resubmission for the same date overwrites.
type CheckinRecord struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_checkin_user_date,unique" json:"user_id"`
	Date         time.Time      `gorm:"column:date;type:date;not null;index:idx_checkin_user_date,unique" json:"date"`
	Yesterday    string         `gorm:"column:yesterday;not null" json:"yesterday"`
	Today        string         `gorm:"column:today;not null" json:"today"`
	Blockers     string         `gorm:"column:blockers" json:"blockers,omitempty"`
	DecisionJSON datatypes.JSON `gorm:"type:jsonb;column:decision_json" json:"decision_json"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (CheckinRecord) TableName() string { return "checkin_record" }

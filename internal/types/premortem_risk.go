package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PremortemRisk is one anticipated failure reason plus its mitigation,
// produced during premortem intake. Priority 1 is highest.
type PremortemRisk struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CommitmentID uuid.UUID      `gorm:"type:uuid;not null;index" json:"commitment_id"`
	Commitment   *Commitment    `gorm:"constraint:OnDelete:CASCADE;foreignKey:CommitmentID;references:ID" json:"commitment,omitempty"`
	Risk         string         `gorm:"column:risk;not null" json:"risk"`
	Mitigation   string         `gorm:"column:mitigation;not null" json:"mitigation"`
	Priority     int            `gorm:"column:priority;not null;default:1" json:"priority"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PremortemRisk) TableName() string { return "premortem_risk" }

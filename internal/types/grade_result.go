package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Grade kinds accepted from the evaluator.
const (
	GradeKindQuiz   = "quiz"
	GradeKindCoding = "coding"
)

// GradeResult is one scored exercise outcome. Score is normalized to
// [0,1]; the knowledge signal is an exponentially weighted average of
// recent rows.
type GradeResult struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_grade_user_created" json:"user_id"`
	TaskID    *uuid.UUID     `gorm:"type:uuid" json:"task_id,omitempty"`
	Kind      string         `gorm:"column:kind;not null;default:'quiz'" json:"kind"`
	Score     float64        `gorm:"column:score;not null" json:"score"`
	Detail    datatypes.JSON `gorm:"type:jsonb;column:detail" json:"detail,omitempty"`
	CreatedAt time.Time      `gorm:"not null;default:now();index:idx_grade_user_created" json:"created_at"`
}

func (GradeResult) TableName() string { return "grade_result" }

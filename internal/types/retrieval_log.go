package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RetrievalLog is an audit row for one retrieval call made while
// generating a plan or answering a check-in.
type RetrievalLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Query     string         `gorm:"column:query;not null" json:"query"`
	Purpose   string         `gorm:"column:purpose;not null" json:"purpose"`
	Results   datatypes.JSON `gorm:"type:jsonb;column:results" json:"results"`
	TookMs    int64          `gorm:"column:took_ms;not null;default:0" json:"took_ms"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (RetrievalLog) TableName() string { return "retrieval_log" }

package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type GradeResultRepo interface {
	Create(dbc dbctx.Context, row *types.GradeResult) error
	RecentScores(dbc dbctx.Context, userID uuid.UUID, limit int) ([]float64, error)
}

type gradeResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGradeResultRepo(db *gorm.DB, baseLog *logger.Logger) GradeResultRepo {
	return &gradeResultRepo{db: db, log: baseLog.With("repo", "GradeResultRepo")}
}

func (r *gradeResultRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

func (r *gradeResultRepo) Create(dbc dbctx.Context, row *types.GradeResult) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).Create(row).Error
}

// RecentScores returns scores newest first, ready for the weighted
// knowledge average.
func (r *gradeResultRepo) RecentScores(dbc dbctx.Context, userID uuid.UUID, limit int) ([]float64, error) {
	out := []float64{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if err := r.dbx(dbc).
		Model(&types.GradeResult{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("score", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

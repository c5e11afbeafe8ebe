package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type RetrievalLogRepo interface {
	Create(dbc dbctx.Context, row *types.RetrievalLog) error
	ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RetrievalLog, error)
}

type retrievalLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRetrievalLogRepo(db *gorm.DB, baseLog *logger.Logger) RetrievalLogRepo {
	return &retrievalLogRepo{db: db, log: baseLog.With("repo", "RetrievalLogRepo")}
}

func (r *retrievalLogRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

func (r *retrievalLogRepo) Create(dbc dbctx.Context, row *types.RetrievalLog) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).Create(row).Error
}

func (r *retrievalLogRepo) ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RetrievalLog, error) {
	out := []*types.RetrievalLog{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if err := r.dbx(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

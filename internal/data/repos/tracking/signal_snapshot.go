package tracking

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type SignalSnapshotRepo interface {
	Create(dbc dbctx.Context, row *types.SignalSnapshot) error
	GetLatestByUser(dbc dbctx.Context, userID uuid.UUID) (*types.SignalSnapshot, error)
	ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.SignalSnapshot, error)
}

type signalSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSignalSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SignalSnapshotRepo {
	return &signalSnapshotRepo{db: db, log: baseLog.With("repo", "SignalSnapshotRepo")}
}

func (r *signalSnapshotRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

func (r *signalSnapshotRepo) Create(dbc dbctx.Context, row *types.SignalSnapshot) error {
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).Create(row).Error
}

func (r *signalSnapshotRepo) GetLatestByUser(dbc dbctx.Context, userID uuid.UUID) (*types.SignalSnapshot, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.SignalSnapshot
	err := r.dbx(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *signalSnapshotRepo) ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.SignalSnapshot, error) {
	out := []*types.SignalSnapshot{}
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 14
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

package planning

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type CommitmentRepo interface {
	Create(dbc dbctx.Context, row *types.Commitment) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error)
	GetActiveByUser(dbc dbctx.Context, userID uuid.UUID) (*types.Commitment, error)
	DeactivateAllForUser(dbc dbctx.Context, userID uuid.UUID) error
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type commitmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommitmentRepo(db *gorm.DB, baseLog *logger.Logger) CommitmentRepo {
	return &commitmentRepo{db: db, log: baseLog.With("repo", "CommitmentRepo")}
}

func (r *commitmentRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

func (r *commitmentRepo) Create(dbc dbctx.Context, row *types.Commitment) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).Create(row).Error
}

func (r *commitmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Commitment
	err := r.dbx(dbc).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *commitmentRepo) GetActiveByUser(dbc dbctx.Context, userID uuid.UUID) (*types.Commitment, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Commitment
	err := r.dbx(dbc).
		Where("user_id = ? AND is_active = ?", userID, true).
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

func (r *commitmentRepo) DeactivateAllForUser(dbc dbctx.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).
		Model(&types.Commitment{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

func (r *commitmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.dbx(dbc).
		Model(&types.Commitment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

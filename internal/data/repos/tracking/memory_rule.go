package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type MemoryRuleRepo interface {
	Create(dbc dbctx.Context, row *types.MemoryRule) error
	ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.MemoryRule, error)
	Deactivate(dbc dbctx.Context, userID, ruleID uuid.UUID) error
}

type memoryRuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRuleRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRuleRepo {
	return &memoryRuleRepo{db: db, log: baseLog.With("repo", "MemoryRuleRepo")}
}

func (r *memoryRuleRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

func (r *memoryRuleRepo) Create(dbc dbctx.Context, row *types.MemoryRule) error {
	if row == nil || row.UserID == uuid.Nil || row.Rule == "" {
		return nil
	}
	return r.dbx(dbc).Create(row).Error
}

func (r *memoryRuleRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.MemoryRule, error) {
	out := []*types.MemoryRule{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *memoryRuleRepo) Deactivate(dbc dbctx.Context, userID, ruleID uuid.UUID) error {
	if userID == uuid.Nil || ruleID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).
		Model(&types.MemoryRule{}).
		Where("id = ? AND user_id = ?", ruleID, userID).
		Update("is_active", false).Error
}

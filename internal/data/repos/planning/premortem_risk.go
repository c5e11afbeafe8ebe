package planning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

type PremortemRiskRepo interface {
	ReplaceForCommitment(dbc dbctx.Context, commitmentID uuid.UUID, rows []*types.PremortemRisk) error
	ListByCommitment(dbc dbctx.Context, commitmentID uuid.UUID) ([]*types.PremortemRisk, error)
}

type premortemRiskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPremortemRiskRepo(db *gorm.DB, baseLog *logger.Logger) PremortemRiskRepo {
	return &premortemRiskRepo{db: db, log: baseLog.With("repo", "PremortemRiskRepo")}
}

func (r *premortemRiskRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

// ReplaceForCommitment swaps the full risk list in one shot. Premortem
// resubmission is an overwrite, not an append.
func (r *premortemRiskRepo) ReplaceForCommitment(dbc dbctx.Context, commitmentID uuid.UUID, rows []*types.PremortemRisk) error {
	if commitmentID == uuid.Nil {
		return nil
	}
	h := r.dbx(dbc)
	if err := h.Where("commitment_id = ?", commitmentID).Delete(&types.PremortemRisk{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		row.CommitmentID = commitmentID
	}
	return h.Create(&rows).Error
}

func (r *premortemRiskRepo) ListByCommitment(dbc dbctx.Context, commitmentID uuid.UUID) ([]*types.PremortemRisk, error) {
	out := []*types.PremortemRisk{}
	if commitmentID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).
		Where("commitment_id = ?", commitmentID).
		Order("priority ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

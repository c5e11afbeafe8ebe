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

type PlanRepo interface {
	CreateWithTasks(dbc dbctx.Context, plan *types.Plan, tasks []*types.DailyTask) error
	GetActiveByCommitmentWeek(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) (*types.Plan, error)
	GetCurrentByUser(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error)
	DeactivateForWeek(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) error
	NextVersion(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) (int, error)
}

type planRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return &planRepo{db: db, log: baseLog.With("repo", "PlanRepo")}
}

func (r *planRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

// CreateWithTasks persists a plan and its tasks atomically. Either the
// whole week lands or none of it does.
func (r *planRepo) CreateWithTasks(dbc dbctx.Context, plan *types.Plan, tasks []*types.DailyTask) error {
	if plan == nil {
		return nil
	}
	return r.dbx(dbc).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		for _, task := range tasks {
			task.PlanID = plan.ID
		}
		return tx.Create(&tasks).Error
	})
}

func (r *planRepo) GetActiveByCommitmentWeek(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) (*types.Plan, error) {
	if commitmentID == uuid.Nil {
		return nil, nil
	}
	var row types.Plan
	err := r.dbx(dbc).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, priority ASC")
		}).
		Where("commitment_id = ? AND week_index = ? AND is_active = ?", commitmentID, weekIndex, true).
		Order("version DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *planRepo) GetCurrentByUser(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.Plan
	err := r.dbx(dbc).
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, priority ASC")
		}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("week_index DESC, version DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *planRepo) DeactivateForWeek(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) error {
	if commitmentID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).
		Model(&types.Plan{}).
		Where("commitment_id = ? AND week_index = ? AND is_active = ?", commitmentID, weekIndex, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		}).Error
}

func (r *planRepo) NextVersion(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) (int, error) {
	if commitmentID == uuid.Nil {
		return 1, nil
	}
	var max int
	err := r.dbx(dbc).
		Model(&types.Plan{}).
		Where("commitment_id = ? AND week_index = ?", commitmentID, weekIndex).
		Select("COALESCE(MAX(version), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

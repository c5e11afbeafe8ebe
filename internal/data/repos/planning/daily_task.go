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

type DailyTaskRepo interface {
	ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*types.DailyTask, error)
	ListByUserDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) ([]*types.DailyTask, error)
	ListPendingByUserRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailyTask, error)
	GetOwned(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.DailyTask, error)
	MarkCompleted(dbc dbctx.Context, taskID uuid.UUID, at time.Time) error
	WeekMinutes(dbc dbctx.Context, userID uuid.UUID, weekStart, weekEnd time.Time) (scheduled int, completed int, err error)
	LastReviewCompletedAt(dbc dbctx.Context, userID uuid.UUID) (*time.Time, error)
}

type dailyTaskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyTaskRepo(db *gorm.DB, baseLog *logger.Logger) DailyTaskRepo {
	return &dailyTaskRepo{db: db, log: baseLog.With("repo", "DailyTaskRepo")}
}

func (r *dailyTaskRepo) dbx(dbc dbctx.Context) *gorm.DB {
	return dbc.Handle(r.db)
}

func (r *dailyTaskRepo) ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*types.DailyTask, error) {
	out := []*types.DailyTask{}
	if planID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).
		Where("plan_id = ?", planID).
		Order("date ASC, priority ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dailyTaskRepo) ListByUserDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) ([]*types.DailyTask, error) {
	out := []*types.DailyTask{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).
		Joins("JOIN plan ON plan.id = daily_task.plan_id").
		Where("plan.user_id = ? AND plan.is_active = ? AND daily_task.date = ?", userID, true, date.Format("2006-01-02")).
		Order("daily_task.priority ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingByUserRange lists pending tasks on the user's active plans
// inside [start, end), ordered by priority then scheduled date.
func (r *dailyTaskRepo) ListPendingByUserRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailyTask, error) {
	out := []*types.DailyTask{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).
		Joins("JOIN plan ON plan.id = daily_task.plan_id").
		Where("plan.user_id = ? AND plan.is_active = ? AND daily_task.status = ? AND daily_task.date >= ? AND daily_task.date < ?",
			userID, true, types.TaskStatusPending, start.Format("2006-01-02"), end.Format("2006-01-02")).
		Order("daily_task.priority ASC, daily_task.date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *dailyTaskRepo) GetOwned(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.DailyTask, error) {
	if userID == uuid.Nil || taskID == uuid.Nil {
		return nil, nil
	}
	var row types.DailyTask
	err := r.dbx(dbc).
		Joins("JOIN plan ON plan.id = daily_task.plan_id").
		Where("daily_task.id = ? AND plan.user_id = ?", taskID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *dailyTaskRepo) MarkCompleted(dbc dbctx.Context, taskID uuid.UUID, at time.Time) error {
	if taskID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).
		Model(&types.DailyTask{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"status":       types.TaskStatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		}).Error
}

// WeekMinutes sums timeboxed minutes on the user's active plans inside
// [weekStart, weekEnd), scheduled and completed separately.
func (r *dailyTaskRepo) WeekMinutes(dbc dbctx.Context, userID uuid.UUID, weekStart, weekEnd time.Time) (int, int, error) {
	if userID == uuid.Nil {
		return 0, 0, nil
	}
	type sums struct {
		Scheduled int
		Completed int
	}
	var s sums
	err := r.dbx(dbc).
		Model(&types.DailyTask{}).
		Select(`
      COALESCE(SUM(daily_task.timebox_min), 0) AS scheduled,
      COALESCE(SUM(CASE WHEN daily_task.status = ? THEN daily_task.timebox_min ELSE 0 END), 0) AS completed
    `, types.TaskStatusCompleted).
		Joins("JOIN plan ON plan.id = daily_task.plan_id").
		Where("plan.user_id = ? AND plan.is_active = ? AND daily_task.date >= ? AND daily_task.date < ?",
			userID, true, weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02")).
		Scan(&s).Error
	if err != nil {
		return 0, 0, err
	}
	return s.Scheduled, s.Completed, nil
}

func (r *dailyTaskRepo) LastReviewCompletedAt(dbc dbctx.Context, userID uuid.UUID) (*time.Time, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.DailyTask
	err := r.dbx(dbc).
		Joins("JOIN plan ON plan.id = daily_task.plan_id").
		Where("plan.user_id = ? AND daily_task.task_type = ? AND daily_task.status = ?",
			userID, types.TaskTypeReview, types.TaskStatusCompleted).
		Order("daily_task.completed_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.CompletedAt, nil
}

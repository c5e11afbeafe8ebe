package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/clients/evaluator"
	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

// TaskSubmission is optional graded work attached to a completion.
type TaskSubmission struct {
	Answers  map[string]string `json:"answers,omitempty"`
	Code     string            `json:"code,omitempty"`
	Language string            `json:"language,omitempty"`
}

// TaskService reads and completes daily tasks. A completion with a
// submission is sent to the grading engine; the resulting score feeds
// the knowledge signal.
type TaskService interface {
	ListToday(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.DailyTask, error)
	Complete(dbc dbctx.Context, userID, taskID uuid.UUID, submission *TaskSubmission) (*types.DailyTask, *types.GradeResult, error)
}

type taskService struct {
	db     *gorm.DB
	log    *logger.Logger
	tasks  repos.DailyTaskRepo
	grades repos.GradeResultRepo
	eval   evaluator.Client
}

func NewTaskService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tasks repos.DailyTaskRepo,
	grades repos.GradeResultRepo,
	eval evaluator.Client,
) TaskService {
	return &taskService{
		db:     db,
		log:    baseLog.With("service", "TaskService"),
		tasks:  tasks,
		grades: grades,
		eval:   eval,
	}
}

func (s *taskService) ListToday(dbc dbctx.Context, userID uuid.UUID, now time.Time) ([]*types.DailyTask, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.tasks.ListByUserDate(dbc, userID, date)
}

// Complete marks the task done. Completing an already completed task
// is a no-op, not an error. Grading failures never undo completion.
func (s *taskService) Complete(dbc dbctx.Context, userID, taskID uuid.UUID, submission *TaskSubmission) (*types.DailyTask, *types.GradeResult, error) {
	if userID == uuid.Nil || taskID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: missing ids", pkgerrors.ErrInvalidArgument)
	}

	task, err := s.tasks.GetOwned(dbc, userID, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, nil, fmt.Errorf("%w: task not found", pkgerrors.ErrNotFound)
	}

	now := time.Now().UTC()
	if task.Status != types.TaskStatusCompleted {
		if err := s.tasks.MarkCompleted(dbc, taskID, now); err != nil {
			return nil, nil, fmt.Errorf("mark completed: %w", err)
		}
		task.Status = types.TaskStatusCompleted
		task.CompletedAt = &now
	}

	grade := s.grade(dbc, userID, task, submission)
	return task, grade, nil
}

func (s *taskService) grade(dbc dbctx.Context, userID uuid.UUID, task *types.DailyTask, submission *TaskSubmission) *types.GradeResult {
	if s.eval == nil || submission == nil {
		return nil
	}
	if len(submission.Answers) == 0 && submission.Code == "" {
		return nil
	}

	kind := types.GradeKindQuiz
	if task.TaskType == types.TaskTypeCoding || submission.Code != "" {
		kind = types.GradeKindCoding
	}
	resp, err := s.eval.Grade(dbc.Ctx, evaluator.GradeRequest{
		Kind:      kind,
		TaskTitle: task.Task,
		Answers:   submission.Answers,
		Code:      submission.Code,
		Language:  submission.Language,
	})
	if err != nil {
		s.log.Warn("Grading failed; completion kept", "task_id", task.ID, "error", err)
		return nil
	}

	detail, _ := json.Marshal(resp)
	taskID := task.ID
	row := &types.GradeResult{
		UserID: userID,
		TaskID: &taskID,
		Kind:   kind,
		Score:  resp.Score,
		Detail: datatypes.JSON(detail),
	}
	if err := s.grades.Create(dbc, row); err != nil {
		s.log.Warn("Persist grade failed", "task_id", task.ID, "error", err)
		return nil
	}
	return row
}

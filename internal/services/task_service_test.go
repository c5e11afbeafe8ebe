package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/clients/evaluator"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/types"
)

func TestCompleteMarksPendingTask(t *testing.T) {
	userID := uuid.New()
	task := &types.DailyTask{ID: uuid.New(), Task: "Read chapter 3", TaskType: types.TaskTypeReading, Status: types.TaskStatusPending}
	tasks := &fakeTaskRepo{owned: func(u, id uuid.UUID) (*types.DailyTask, error) { return task, nil }}

	svc := NewTaskService(nil, testLogger(t), tasks, &fakeGradeRepo{}, nil)
	got, grade, err := svc.Complete(dbcNoTx(), userID, task.ID, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != types.TaskStatusCompleted || got.CompletedAt == nil {
		t.Fatalf("task not completed: %+v", got)
	}
	if grade != nil {
		t.Fatalf("unexpected grade without submission")
	}
	if len(tasks.completed) != 1 {
		t.Fatalf("MarkCompleted calls = %d", len(tasks.completed))
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	done := &types.DailyTask{ID: uuid.New(), Task: "Done already", Status: types.TaskStatusCompleted}
	tasks := &fakeTaskRepo{owned: func(u, id uuid.UUID) (*types.DailyTask, error) { return done, nil }}

	svc := NewTaskService(nil, testLogger(t), tasks, &fakeGradeRepo{}, nil)
	if _, _, err := svc.Complete(dbcNoTx(), uuid.New(), done.ID, nil); err != nil {
		t.Fatalf("Complete on completed task: %v", err)
	}
	if len(tasks.completed) != 0 {
		t.Fatalf("completed task was re-marked")
	}
}

func TestCompleteUnknownTask(t *testing.T) {
	svc := NewTaskService(nil, testLogger(t), &fakeTaskRepo{}, &fakeGradeRepo{}, nil)
	_, _, err := svc.Complete(dbcNoTx(), uuid.New(), uuid.New(), nil)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteGradesCodingSubmission(t *testing.T) {
	userID := uuid.New()
	task := &types.DailyTask{ID: uuid.New(), Task: "Implement a queue", TaskType: types.TaskTypeCoding, Status: types.TaskStatusPending}
	tasks := &fakeTaskRepo{owned: func(u, id uuid.UUID) (*types.DailyTask, error) { return task, nil }}
	grades := &fakeGradeRepo{}
	eval := &fakeEvaluator{resp: &evaluator.GradeResponse{Score: 0.85, Feedback: "solid"}}

	svc := NewTaskService(nil, testLogger(t), tasks, grades, eval)
	_, grade, err := svc.Complete(dbcNoTx(), userID, task.ID, &TaskSubmission{Code: "type Queue struct{}", Language: "go"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if grade == nil || grade.Score != 0.85 || grade.Kind != types.GradeKindCoding {
		t.Fatalf("grade = %+v", grade)
	}
	if grade.TaskID == nil || *grade.TaskID != task.ID {
		t.Fatalf("grade not linked to task")
	}
	if len(grades.created) != 1 {
		t.Fatalf("grade rows = %d", len(grades.created))
	}
}

func TestCompleteKeepsCompletionWhenGradingFails(t *testing.T) {
	task := &types.DailyTask{ID: uuid.New(), Task: "Quiz on indexes", TaskType: types.TaskTypeReading, Status: types.TaskStatusPending}
	tasks := &fakeTaskRepo{owned: func(u, id uuid.UUID) (*types.DailyTask, error) { return task, nil }}
	eval := &fakeEvaluator{err: errors.New("evaluator down")}

	svc := NewTaskService(nil, testLogger(t), tasks, &fakeGradeRepo{}, eval)
	got, grade, err := svc.Complete(dbcNoTx(), uuid.New(), task.ID, &TaskSubmission{Answers: map[string]string{"q1": "btree"}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != types.TaskStatusCompleted {
		t.Fatalf("completion lost on grading failure")
	}
	if grade != nil {
		t.Fatalf("expected nil grade on evaluator failure")
	}
}

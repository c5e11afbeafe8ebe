package planning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/data/repos/testutil"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/types"
)

func TestDailyTaskRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewDailyTaskRepo(db, testutil.Logger(t))

	userID := uuid.New()
	commitment := testutil.SeedCommitment(t, dbc.Ctx, tx, userID)
	plan := testutil.SeedPlan(t, dbc.Ctx, tx, commitment, 1)

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)

	mon := testutil.SeedDailyTask(t, dbc.Ctx, tx, plan.ID, weekStart, 30)
	tue := testutil.SeedDailyTask(t, dbc.Ctx, tx, plan.ID, weekStart.AddDate(0, 0, 1), 45)
	_ = testutil.SeedDailyTask(t, dbc.Ctx, tx, plan.ID, weekEnd, 60) // next week, excluded

	rows, err := repo.ListByPlan(dbc, plan.ID)
	if err != nil {
		t.Fatalf("ListByPlan: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("ListByPlan: expected 3, got %d", len(rows))
	}

	today, err := repo.ListByUserDate(dbc, userID, weekStart)
	if err != nil {
		t.Fatalf("ListByUserDate: %v", err)
	}
	if len(today) != 1 || today[0].ID != mon.ID {
		t.Fatalf("ListByUserDate: got %d rows", len(today))
	}

	pending, err := repo.ListPendingByUserRange(dbc, userID, weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ListPendingByUserRange: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("ListPendingByUserRange: expected 2, got %d", len(pending))
	}

	// Ownership check: another user cannot see this task.
	if other, err := repo.GetOwned(dbc, uuid.New(), mon.ID); err != nil || other != nil {
		t.Fatalf("GetOwned other user: err=%v got=%v", err, other)
	}
	owned, err := repo.GetOwned(dbc, userID, mon.ID)
	if err != nil {
		t.Fatalf("GetOwned: %v", err)
	}
	if owned == nil || owned.ID != mon.ID {
		t.Fatalf("GetOwned: expected %v got %v", mon.ID, owned)
	}

	doneAt := weekStart.Add(18 * time.Hour)
	if err := repo.MarkCompleted(dbc, mon.ID, doneAt); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	pending, err = repo.ListPendingByUserRange(dbc, userID, weekStart, weekEnd)
	if err != nil {
		t.Fatalf("ListPendingByUserRange after completion: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != tue.ID {
		t.Fatalf("ListPendingByUserRange after completion: got %d rows", len(pending))
	}

	scheduled, completed, err := repo.WeekMinutes(dbc, userID, weekStart, weekEnd)
	if err != nil {
		t.Fatalf("WeekMinutes: %v", err)
	}
	if scheduled != 75 {
		t.Fatalf("WeekMinutes scheduled = %d, want 75", scheduled)
	}
	if completed != 30 {
		t.Fatalf("WeekMinutes completed = %d, want 30", completed)
	}

	// No completed review task yet.
	last, err := repo.LastReviewCompletedAt(dbc, userID)
	if err != nil {
		t.Fatalf("LastReviewCompletedAt: %v", err)
	}
	if last != nil {
		t.Fatalf("LastReviewCompletedAt: expected nil, got %v", last)
	}

	if err := tx.WithContext(dbc.Ctx).Model(&types.DailyTask{}).
		Where("id = ?", tue.ID).
		Updates(map[string]interface{}{"task_type": types.TaskTypeReview}).Error; err != nil {
		t.Fatalf("retag review task: %v", err)
	}
	reviewAt := weekStart.AddDate(0, 0, 1).Add(20 * time.Hour)
	if err := repo.MarkCompleted(dbc, tue.ID, reviewAt); err != nil {
		t.Fatalf("MarkCompleted review: %v", err)
	}
	last, err = repo.LastReviewCompletedAt(dbc, userID)
	if err != nil {
		t.Fatalf("LastReviewCompletedAt after review: %v", err)
	}
	if last == nil || !last.Equal(reviewAt) {
		t.Fatalf("LastReviewCompletedAt: got %v, want %v", last, reviewAt)
	}
}

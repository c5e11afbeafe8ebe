package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studypact-backend/internal/data/repos/testutil"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/types"
)

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	ownerUserID := uuid.New()

	queued := &types.JobRun{
		ID:             uuid.New(),
		OwnerUserID:    ownerUserID,
		JobType:        types.JobTypePlanGenerate,
		IdempotencyKey: "plan:week:1",
		Status:         types.JobStatusQueued,
		Payload:        datatypes.JSON([]byte("{}")),
		Result:         datatypes.JSON([]byte("{}")),
		CreatedAt:      now.Add(-3 * time.Hour),
		UpdatedAt:      now.Add(-3 * time.Hour),
	}
	failed := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     types.JobTypePlanGenerate,
		Status:      types.JobStatusFailed,
		Attempts:    1,
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-2 * time.Hour),
		UpdatedAt:   now.Add(-2 * time.Hour),
	}
	staleRunning := &types.JobRun{
		ID:          uuid.New(),
		OwnerUserID: ownerUserID,
		JobType:     types.JobTypePlanGenerate,
		Status:      types.JobStatusRunning,
		Attempts:    1,
		HeartbeatAt: testutil.PtrTime(now.Add(-10 * time.Hour)),
		Payload:     datatypes.JSON([]byte("{}")),
		Result:      datatypes.JSON([]byte("{}")),
		CreatedAt:   now.Add(-1 * time.Hour),
		UpdatedAt:   now.Add(-1 * time.Hour),
	}
	for _, j := range []*types.JobRun{queued, failed, staleRunning} {
		if err := repo.Create(dbc, j); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.GetByID(dbc, queued.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ID != queued.ID {
		t.Fatalf("GetByID: expected %v got %v", queued.ID, got)
	}

	// Enqueue dedupe: the queued run is found by its key.
	dup, err := repo.FindRunnableByKey(dbc, ownerUserID, types.JobTypePlanGenerate, "plan:week:1")
	if err != nil {
		t.Fatalf("FindRunnableByKey: %v", err)
	}
	if dup == nil || dup.ID != queued.ID {
		t.Fatalf("FindRunnableByKey: expected %v got %v", queued.ID, dup)
	}
	if miss, err := repo.FindRunnableByKey(dbc, ownerUserID, types.JobTypePlanGenerate, "plan:week:2"); err != nil || miss != nil {
		t.Fatalf("FindRunnableByKey miss: err=%v got=%v", err, miss)
	}

	// Claims walk the runnable set oldest first: queued, then the
	// retryable failure, then the stale running job.
	wantOrder := []uuid.UUID{queued.ID, failed.ID, staleRunning.ID}
	for i, want := range wantOrder {
		claim, err := repo.ClaimNextRunnable(dbc, 3, time.Hour, time.Hour)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i+1, err)
		}
		if claim == nil || claim.ID != want {
			t.Fatalf("ClaimNextRunnable #%d: expected %v got %v", i+1, want, claim)
		}
	}
	if claim, err := repo.ClaimNextRunnable(dbc, 3, time.Hour, time.Hour); err != nil || claim != nil {
		t.Fatalf("ClaimNextRunnable drained: err=%v got=%v", err, claim)
	}

	if err := repo.UpdateFields(dbc, queued.ID, map[string]interface{}{
		"status": types.JobStatusDone,
		"result": datatypes.JSON([]byte(`{"plan_id":"x"}`)),
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err = repo.GetByID(dbc, queued.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if got.Status != types.JobStatusDone {
		t.Fatalf("status = %q, want done", got.Status)
	}

	// A done run no longer matches its idempotency key.
	if done, err := repo.FindRunnableByKey(dbc, ownerUserID, types.JobTypePlanGenerate, "plan:week:1"); err != nil || done != nil {
		t.Fatalf("FindRunnableByKey done: err=%v got=%v", err, done)
	}

	if err := repo.Heartbeat(dbc, failed.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
}

package tracking

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

func TestCheckinRepoUpsertOverwrites(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewCheckinRepo(db, testutil.Logger(t))

	userID := uuid.New()
	day := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	first := &types.CheckinRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      day,
		Yesterday: "read chapter 3",
		Today:     "exercises",
	}
	if err := repo.Upsert(dbc, first); err != nil {
		t.Fatalf("Upsert first: %v", err)
	}

	second := &types.CheckinRecord{
		ID:           uuid.New(),
		UserID:       userID,
		Date:         day,
		Yesterday:    "read chapters 3 and 4",
		Today:        "exercises and flashcards",
		Blockers:     "slow wifi",
		DecisionJSON: datatypes.JSON([]byte(`{"reason":"ok"}`)),
	}
	if err := repo.Upsert(dbc, second); err != nil {
		t.Fatalf("Upsert second: %v", err)
	}

	got, err := repo.GetByUserDate(dbc, userID, day)
	if err != nil {
		t.Fatalf("GetByUserDate: %v", err)
	}
	if got == nil {
		t.Fatalf("GetByUserDate: expected row")
	}
	if got.Yesterday != second.Yesterday || got.Blockers != "slow wifi" {
		t.Fatalf("Upsert did not overwrite: %+v", got)
	}

	var count int64
	if err := tx.Model(&types.CheckinRecord{}).
		Where("user_id = ? AND date = ?", userID, day.Format("2006-01-02")).
		Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 row per (user, date), got %d", count)
	}

	// A different day is a separate row.
	next := &types.CheckinRecord{
		ID:        uuid.New(),
		UserID:    userID,
		Date:      day.AddDate(0, 0, 1),
		Yesterday: "exercises",
		Today:     "mock exam",
	}
	if err := repo.Upsert(dbc, next); err != nil {
		t.Fatalf("Upsert next day: %v", err)
	}
	recent, err := repo.ListRecent(dbc, userID, 7)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("ListRecent: expected 2, got %d", len(recent))
	}
	if !recent[0].Date.After(recent[1].Date) {
		t.Fatalf("ListRecent: expected newest first")
	}
}

func TestSignalSnapshotRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSignalSnapshotRepo(db, testutil.Logger(t))

	userID := uuid.New()

	if latest, err := repo.GetLatestByUser(dbc, userID); err != nil || latest != nil {
		t.Fatalf("GetLatestByUser empty: err=%v got=%v", err, latest)
	}

	older := &types.SignalSnapshot{
		ID: uuid.New(), UserID: userID,
		AdherenceRate: 0.3, KnowledgeScore: 0.5, RetentionScore: 0.5,
		Status:    types.StatusAtRisk,
		CreatedAt: time.Now().UTC().Add(-time.Hour),
	}
	newer := &types.SignalSnapshot{
		ID: uuid.New(), UserID: userID,
		AdherenceRate: 0.6, KnowledgeScore: 0.6, RetentionScore: 0.6,
		Status:    types.StatusRecovering,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(dbc, older); err != nil {
		t.Fatalf("Create older: %v", err)
	}
	if err := repo.Create(dbc, newer); err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	latest, err := repo.GetLatestByUser(dbc, userID)
	if err != nil {
		t.Fatalf("GetLatestByUser: %v", err)
	}
	if latest == nil || latest.ID != newer.ID {
		t.Fatalf("GetLatestByUser: expected %v got %v", newer.ID, latest)
	}

	recent, err := repo.ListRecentByUser(dbc, userID, 14)
	if err != nil {
		t.Fatalf("ListRecentByUser: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != newer.ID {
		t.Fatalf("ListRecentByUser: got %d rows", len(recent))
	}
}

func TestGradeResultRepoRecentScores(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewGradeResultRepo(db, testutil.Logger(t))

	userID := uuid.New()
	base := time.Now().UTC()
	for i, score := range []float64{0.4, 0.6, 0.9} {
		row := &types.GradeResult{
			ID:        uuid.New(),
			UserID:    userID,
			Kind:      types.GradeKindQuiz,
			Score:     score,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(dbc, row); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	scores, err := repo.RecentScores(dbc, userID, 2)
	if err != nil {
		t.Fatalf("RecentScores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("RecentScores: expected 2, got %d", len(scores))
	}
	if scores[0] != 0.9 || scores[1] != 0.6 {
		t.Fatalf("RecentScores: expected newest first, got %v", scores)
	}
}

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/types"
)

func SeedCommitment(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Commitment {
	tb.Helper()
	c := &types.Commitment{
		ID:               uuid.New(),
		UserID:           userID,
		Goal:             "pass the AWS certification",
		TargetDate:       time.Now().UTC().AddDate(0, 2, 0),
		BaselineLevel:    types.BaselineIntermediate,
		WeeklyHours:      6,
		LearningStyle:    types.LearningStyleMixed,
		PremortemReasons: datatypes.JSON([]byte("[]")),
		IsActive:         true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed commitment: %v", err)
	}
	return c
}

func SeedPlan(tb testing.TB, ctx context.Context, tx *gorm.DB, commitment *types.Commitment, weekIndex int) *types.Plan {
	tb.Helper()
	p := &types.Plan{
		ID:           uuid.New(),
		CommitmentID: commitment.ID,
		UserID:       commitment.UserID,
		WeekIndex:    weekIndex,
		WeekStart:    time.Now().UTC().Truncate(24 * time.Hour),
		WeekFocus:    "core concepts",
		ReviewTopics: datatypes.JSON([]byte("[]")),
		Version:      1,
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed plan: %v", err)
	}
	return p
}

func SeedDailyTask(tb testing.TB, ctx context.Context, tx *gorm.DB, planID uuid.UUID, date time.Time, timeboxMin int) *types.DailyTask {
	tb.Helper()
	d := &types.DailyTask{
		ID:         uuid.New(),
		PlanID:     planID,
		Date:       date,
		Task:       "read chapter",
		TimeboxMin: timeboxMin,
		TaskType:   types.TaskTypeReading,
		Status:     types.TaskStatusPending,
		Priority:   3,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed daily task: %v", err)
	}
	return d
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

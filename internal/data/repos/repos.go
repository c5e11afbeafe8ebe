package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/data/repos/jobs"
	"github.com/yungbote/studypact-backend/internal/data/repos/planning"
	"github.com/yungbote/studypact-backend/internal/data/repos/tracking"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

type CommitmentRepo = planning.CommitmentRepo
type PremortemRiskRepo = planning.PremortemRiskRepo
type PlanRepo = planning.PlanRepo
type DailyTaskRepo = planning.DailyTaskRepo

type CheckinRepo = tracking.CheckinRepo
type SignalSnapshotRepo = tracking.SignalSnapshotRepo
type GradeResultRepo = tracking.GradeResultRepo
type MemoryRuleRepo = tracking.MemoryRuleRepo
type RetrievalLogRepo = tracking.RetrievalLogRepo

type JobRunRepo = jobs.JobRunRepo

func NewCommitmentRepo(db *gorm.DB, baseLog *logger.Logger) CommitmentRepo {
	return planning.NewCommitmentRepo(db, baseLog)
}
func NewPremortemRiskRepo(db *gorm.DB, baseLog *logger.Logger) PremortemRiskRepo {
	return planning.NewPremortemRiskRepo(db, baseLog)
}
func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return planning.NewPlanRepo(db, baseLog)
}
func NewDailyTaskRepo(db *gorm.DB, baseLog *logger.Logger) DailyTaskRepo {
	return planning.NewDailyTaskRepo(db, baseLog)
}

func NewCheckinRepo(db *gorm.DB, baseLog *logger.Logger) CheckinRepo {
	return tracking.NewCheckinRepo(db, baseLog)
}
func NewSignalSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SignalSnapshotRepo {
	return tracking.NewSignalSnapshotRepo(db, baseLog)
}
func NewGradeResultRepo(db *gorm.DB, baseLog *logger.Logger) GradeResultRepo {
	return tracking.NewGradeResultRepo(db, baseLog)
}
func NewMemoryRuleRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRuleRepo {
	return tracking.NewMemoryRuleRepo(db, baseLog)
}
func NewRetrievalLogRepo(db *gorm.DB, baseLog *logger.Logger) RetrievalLogRepo {
	return tracking.NewRetrievalLogRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}

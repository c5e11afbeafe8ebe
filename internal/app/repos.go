package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

type Repos struct {
	Commitments repos.CommitmentRepo
	Risks       repos.PremortemRiskRepo
	Plans       repos.PlanRepo
	Tasks       repos.DailyTaskRepo
	Checkins    repos.CheckinRepo
	Snapshots   repos.SignalSnapshotRepo
	Grades      repos.GradeResultRepo
	Rules       repos.MemoryRuleRepo
	Retrievals  repos.RetrievalLogRepo
	Jobs        repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Commitments: repos.NewCommitmentRepo(db, log),
		Risks:       repos.NewPremortemRiskRepo(db, log),
		Plans:       repos.NewPlanRepo(db, log),
		Tasks:       repos.NewDailyTaskRepo(db, log),
		Checkins:    repos.NewCheckinRepo(db, log),
		Snapshots:   repos.NewSignalSnapshotRepo(db, log),
		Grades:      repos.NewGradeResultRepo(db, log),
		Rules:       repos.NewMemoryRuleRepo(db, log),
		Retrievals:  repos.NewRetrievalLogRepo(db, log),
		Jobs:        repos.NewJobRunRepo(db, log),
	}
}

package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/jobs/plangen"
	"github.com/yungbote/studypact-backend/internal/jobs/runtime"
	"github.com/yungbote/studypact-backend/internal/jobs/worker"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/services"
	"github.com/yungbote/studypact-backend/internal/temporalx"
	"github.com/yungbote/studypact-backend/internal/temporalx/temporalworker"
)

type Services struct {
	Notifier    services.JobNotifier
	Jobs        services.JobService
	Signals     services.SignalService
	Commitments services.CommitmentService
	Plans       services.PlanService
	Checkins    services.CheckinService
	Tasks       services.TaskService

	JobWorker      *worker.Worker
	TemporalClient temporalsdkclient.Client
	TemporalWorker *temporalworker.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")

	notifier := services.NewJobNotifier(log)

	tc, err := temporalx.NewClient(log)
	if err != nil {
		return Services{}, fmt.Errorf("init temporal client: %w", err)
	}

	jobs := services.NewJobService(db, log, r.Jobs, notifier, tc, cfg.TemporalTaskQueue)
	signals := services.NewSignalService(db, log, r.Commitments, r.Tasks, r.Grades, r.Snapshots)
	commitments := services.NewCommitmentService(db, log, r.Commitments, r.Risks, c.OpenAI, jobs)

	plans, err := services.NewPlanService(
		db, log,
		r.Commitments, r.Plans, r.Risks, r.Rules, r.Snapshots, r.Retrievals,
		c.OpenAI, c.RAG, c.Locker, jobs,
	)
	if err != nil {
		return Services{}, fmt.Errorf("init plan service: %w", err)
	}

	checkins := services.NewCheckinService(
		db, log,
		r.Checkins, r.Tasks, r.Risks, r.Rules, r.Retrievals,
		signals, plans, c.OpenAI, c.RAG,
	)
	tasks := services.NewTaskService(db, log, r.Tasks, r.Grades, c.Evaluator)

	registry := runtime.NewRegistry()
	if err := registry.Register(plangen.NewHandler(log, plans)); err != nil {
		return Services{}, fmt.Errorf("register plan_generate handler: %w", err)
	}

	svc := Services{
		Notifier:       notifier,
		Jobs:           jobs,
		Signals:        signals,
		Commitments:    commitments,
		Plans:          plans,
		Checkins:       checkins,
		Tasks:          tasks,
		JobWorker:      worker.NewWorker(db, log, r.Jobs, registry, notifier),
		TemporalClient: tc,
	}

	// With Temporal configured, job runs execute through workflows and
	// the DB-polling worker stays off.
	if tc != nil {
		runner, err := temporalworker.NewRunner(log, tc, db, r.Jobs, registry, notifier)
		if err != nil {
			return Services{}, fmt.Errorf("init temporal worker: %w", err)
		}
		svc.TemporalWorker = runner
	}

	return svc, nil
}

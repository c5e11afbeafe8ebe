package app

import (
	"github.com/yungbote/studypact-backend/internal/http/handlers"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

type Handlers struct {
	Commitment *handlers.CommitmentHandler
	Plan       *handlers.PlanHandler
	Checkin    *handlers.CheckinHandler
	Task       *handlers.TaskHandler
	Metrics    *handlers.MetricsHandler
	Job        *handlers.JobHandler
	Health     *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Commitment: handlers.NewCommitmentHandler(services.Commitments),
		Plan:       handlers.NewPlanHandler(services.Plans),
		Checkin:    handlers.NewCheckinHandler(services.Checkins),
		Task:       handlers.NewTaskHandler(services.Tasks),
		Metrics:    handlers.NewMetricsHandler(services.Signals),
		Job:        handlers.NewJobHandler(services.Jobs),
		Health:     handlers.NewHealthHandler(),
	}
}

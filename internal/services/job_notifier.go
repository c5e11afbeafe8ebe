package services

import (
	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

// JobNotifier receives terminal job events from the background runtime.
type JobNotifier interface {
	JobDone(ownerUserID uuid.UUID, job *types.JobRun)
	JobFailed(ownerUserID uuid.UUID, job *types.JobRun, msg string)
}

type jobNotifier struct {
	log *logger.Logger
}

// NewJobNotifier returns a log-only notifier. Clients poll GET /api/jobs/:id
// for terminal state, so no push channel is needed here.
func NewJobNotifier(baseLog *logger.Logger) JobNotifier {
	return &jobNotifier{log: baseLog.With("service", "JobNotifier")}
}

func (n *jobNotifier) JobDone(ownerUserID uuid.UUID, job *types.JobRun) {
	if job == nil {
		return
	}
	n.log.Info("Job done", "user_id", ownerUserID, "job_id", job.ID, "job_type", job.JobType)
}

func (n *jobNotifier) JobFailed(ownerUserID uuid.UUID, job *types.JobRun, msg string) {
	if job == nil {
		return
	}
	n.log.Warn("Job failed", "user_id", ownerUserID, "job_id", job.ID, "job_type", job.JobType, "error", msg)
}

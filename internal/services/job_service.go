package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/pkg/ctxutil"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/temporalx/jobrun"
	"github.com/yungbote/studypact-backend/internal/types"
)

// JobService enqueues background work as job_run rows and, when a
// Temporal client is configured, dispatches each row as a workflow.
// Without Temporal the DB-polling worker claims queued rows instead,
// so Enqueue is safe either way.
type JobService interface {
	Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType, idempotencyKey string, payload map[string]any) (*types.JobRun, bool, error)
	GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.JobRunRepo
	notify JobNotifier

	temporal          temporalsdkclient.Client
	temporalTaskQueue string
}

func NewJobService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.JobRunRepo,
	notify JobNotifier,
	tc temporalsdkclient.Client,
	taskQueue string,
) JobService {
	return &jobService{
		db:                db,
		log:               baseLog.With("service", "JobService"),
		repo:              repo,
		notify:            notify,
		temporal:          tc,
		temporalTaskQueue: strings.TrimSpace(taskQueue),
	}
}

// Enqueue creates a queued job_run. When a non-empty idempotency key
// matches an already runnable job of the same type, that job is
// returned and created is false. The second return value reports
// whether a new row was written.
func (s *jobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType, idempotencyKey string, payload map[string]any) (*types.JobRun, bool, error) {
	if ownerUserID == uuid.Nil {
		return nil, false, fmt.Errorf("%w: missing owner_user_id", pkgerrors.ErrInvalidArgument)
	}
	if jobType == "" {
		return nil, false, fmt.Errorf("%w: missing job_type", pkgerrors.ErrInvalidArgument)
	}

	if idempotencyKey != "" {
		existing, err := s.repo.FindRunnableByKey(dbc, ownerUserID, jobType, idempotencyKey)
		if err != nil {
			return nil, false, fmt.Errorf("dedupe lookup: %w", err)
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	if payload == nil {
		payload = map[string]any{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("marshal payload: %w", err)
	}

	now := time.Now().UTC()
	job := &types.JobRun{
		ID:             uuid.New(),
		OwnerUserID:    ownerUserID,
		JobType:        jobType,
		IdempotencyKey: idempotencyKey,
		Status:         types.JobStatusQueued,
		Attempts:       0,
		Payload:        datatypes.JSON(b),
		Result:         datatypes.JSON([]byte(`{}`)),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(dbc, job); err != nil {
		return nil, false, fmt.Errorf("create job: %w", err)
	}

	// Inside a caller transaction the row is not yet visible to a
	// Temporal activity, so dispatch only after commit: callers pass
	// a tx-free dbctx when they want immediate dispatch.
	if dbc.Tx == nil {
		s.dispatch(dbc.Ctx, job)
	}
	return job, true, nil
}

// dispatch starts the Temporal workflow backing the job. Failure to
// dispatch is not fatal: the DB worker claims the queued row instead.
func (s *jobService) dispatch(ctx context.Context, job *types.JobRun) {
	if s.temporal == nil || job == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	tq := s.temporalTaskQueue
	if tq == "" {
		tq = "studypact"
	}
	opts := temporalsdkclient.StartWorkflowOptions{
		ID:        job.ID.String(),
		TaskQueue: tq,
	}
	if _, err := s.temporal.ExecuteWorkflow(ctx, opts, jobrun.WorkflowName); err != nil {
		if _, ok := err.(*serviceerror.WorkflowExecutionAlreadyStarted); ok {
			return
		}
		s.log.Warn("Temporal dispatch failed; leaving job for DB worker",
			"job_id", job.ID, "job_type", job.JobType, "error", err)
	}
}

func (s *jobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: not authenticated", pkgerrors.ErrUnauthorized)
	}
	if jobID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing job id", pkgerrors.ErrInvalidArgument)
	}
	job, err := s.repo.GetByID(dbc, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil || job.OwnerUserID != rd.UserID {
		return nil, fmt.Errorf("%w: job not found", pkgerrors.ErrNotFound)
	}
	return job, nil
}

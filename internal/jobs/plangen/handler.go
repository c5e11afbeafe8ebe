package plangen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/jobs/runtime"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

// Generator produces the weekly plan for one commitment week.
type Generator interface {
	GenerateWeekly(ctx context.Context, userID, commitmentID uuid.UUID, weekIndex int, force bool) (*types.Plan, error)
}

type handler struct {
	log *logger.Logger
	gen Generator
}

func NewHandler(baseLog *logger.Logger, gen Generator) runtime.Handler {
	return &handler{
		log: baseLog.With("handler", "PlanGenerate"),
		gen: gen,
	}
}

func (h *handler) Type() string { return types.JobTypePlanGenerate }

func (h *handler) Run(jc *runtime.Context) error {
	commitmentID, ok := jc.PayloadUUID("commitment_id")
	if !ok {
		err := fmt.Errorf("payload missing commitment_id")
		jc.Fail(err)
		return nil
	}
	weekIndex, ok := jc.PayloadInt("week_index")
	if !ok || weekIndex < 1 {
		err := fmt.Errorf("payload missing week_index")
		jc.Fail(err)
		return nil
	}
	force := jc.PayloadBool("force")

	plan, err := h.gen.GenerateWeekly(jc.Ctx, jc.Job.OwnerUserID, commitmentID, weekIndex, force)
	if err != nil {
		h.log.Warn("Plan generation failed",
			"job_id", jc.Job.ID,
			"commitment_id", commitmentID,
			"week_index", weekIndex,
			"error", err,
		)
		jc.Fail(err)
		return nil
	}

	jc.Succeed(map[string]any{
		"plan_id":    plan.ID,
		"week_index": plan.WeekIndex,
		"version":    plan.Version,
		"task_count": len(plan.Tasks),
	})
	return nil
}

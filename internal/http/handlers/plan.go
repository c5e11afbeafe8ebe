package handlers

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypact-backend/internal/http/response"
	"github.com/yungbote/studypact-backend/internal/services"
	"github.com/yungbote/studypact-backend/internal/types"
)

type PlanHandler struct {
	plans services.PlanService
}

func NewPlanHandler(plans services.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

// POST /api/plan/weekly?force=true
// Generation runs as a background job; poll GET /api/jobs/:id.
func (h *PlanHandler) GenerateWeekly(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.Query("force"))

	job, err := h.plans.RequestGeneration(reqCtx(c), userID, force)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"job": job})
}

// planView is the read shape for the current plan: week focus up
// front, the plan body, and tasks grouped by scheduled date.
type planView struct {
	WeekFocus string    `json:"week_focus"`
	Plan      planBody  `json:"plan"`
	Schedule  []dayView `json:"schedule"`
}

type planBody struct {
	MicroProject string   `json:"micro_project"`
	ReviewTopics []string `json:"review_topics"`
}

type dayView struct {
	Date  string             `json:"date"`
	Tasks []*types.DailyTask `json:"tasks"`
}

// newPlanView groups tasks by date, relying on the repo's
// date-then-priority ordering.
func newPlanView(p *types.Plan) *planView {
	if p == nil {
		return nil
	}
	topics := []string{}
	if len(p.ReviewTopics) > 0 {
		_ = json.Unmarshal(p.ReviewTopics, &topics)
	}
	v := &planView{
		WeekFocus: p.WeekFocus,
		Plan:      planBody{MicroProject: p.MicroProject, ReviewTopics: topics},
		Schedule:  []dayView{},
	}
	for _, t := range p.Tasks {
		day := t.Date.Format("2006-01-02")
		if n := len(v.Schedule); n == 0 || v.Schedule[n-1].Date != day {
			v.Schedule = append(v.Schedule, dayView{Date: day})
		}
		v.Schedule[len(v.Schedule)-1].Tasks = append(v.Schedule[len(v.Schedule)-1].Tasks, t)
	}
	return v
}

// GET /api/plan/current
func (h *PlanHandler) GetCurrent(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	plan, err := h.plans.GetCurrent(reqCtx(c), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	// No plan yet is a legitimate state, not a 404.
	if plan == nil {
		response.RespondOK(c, gin.H{"plan": nil})
		return
	}
	response.RespondOK(c, newPlanView(plan))
}

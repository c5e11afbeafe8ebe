package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypact-backend/internal/http/response"
	"github.com/yungbote/studypact-backend/internal/services"
)

type CommitmentHandler struct {
	commitments services.CommitmentService
}

func NewCommitmentHandler(commitments services.CommitmentService) *CommitmentHandler {
	return &CommitmentHandler{commitments: commitments}
}

type intakeRequest struct {
	Goal          string `json:"goal"`
	TargetDate    string `json:"target_date"`
	BaselineLevel string `json:"baseline_level"`
	WeeklyHours   int    `json:"weekly_hours"`
	LearningStyle string `json:"learning_style"`
}

// POST /api/intake
func (h *CommitmentHandler) Intake(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req intakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	targetDate, err := parseDate(req.TargetDate)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_target_date", err)
		return
	}

	commitment, job, err := h.commitments.Intake(reqCtx(c), userID, services.IntakeInput{
		Goal:          req.Goal,
		TargetDate:    targetDate,
		BaselineLevel: req.BaselineLevel,
		WeeklyHours:   req.WeeklyHours,
		LearningStyle: req.LearningStyle,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out := gin.H{"commitment": commitment}
	if job != nil {
		out["plan_job"] = job
	}
	response.RespondOK(c, out)
}

type premortemRequest struct {
	Reasons []string `json:"reasons"`
}

// POST /api/premortem
func (h *CommitmentHandler) Premortem(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req premortemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	risks, err := h.commitments.Premortem(reqCtx(c), userID, req.Reasons)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"risks": risks})
}

// GET /api/commitment/current
func (h *CommitmentHandler) GetCurrent(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	commitment, err := h.commitments.GetCurrent(reqCtx(c), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	// Absent commitment is a legitimate state, not a 404.
	response.RespondOK(c, gin.H{"commitment": commitment})
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q", raw)
}

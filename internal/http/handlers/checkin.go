package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypact-backend/internal/http/response"
	"github.com/yungbote/studypact-backend/internal/services"
)

type CheckinHandler struct {
	checkins services.CheckinService
}

func NewCheckinHandler(checkins services.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkins: checkins}
}

type dailyCheckinRequest struct {
	Date      string `json:"date"`
	Yesterday string `json:"yesterday"`
	Today     string `json:"today"`
	Blockers  string `json:"blockers"`
}

// POST /api/checkin/daily
func (h *CheckinHandler) Daily(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	var req dailyCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	var date time.Time
	if req.Date != "" {
		parsed, err := parseDate(req.Date)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_date", err)
			return
		}
		date = parsed
	}

	decision, err := h.checkins.Process(reqCtx(c), userID, services.CheckinInput{
		Date:      date,
		Yesterday: req.Yesterday,
		Today:     req.Today,
		Blockers:  req.Blockers,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, decision)
}

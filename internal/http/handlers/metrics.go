package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studypact-backend/internal/http/response"
	"github.com/yungbote/studypact-backend/internal/services"
)

type MetricsHandler struct {
	signals services.SignalService
}

func NewMetricsHandler(signals services.SignalService) *MetricsHandler {
	return &MetricsHandler{signals: signals}
}

// GET /api/metrics/summary
func (h *MetricsHandler) Summary(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	summary, err := h.signals.Summary(reqCtx(c), userID, time.Now().UTC())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, summary)
}

package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/yungbote/studypact-backend/internal/http"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

func wireRouter(log *logger.Logger, handlers Handlers, middleware Middleware) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.Auth,

		CommitmentHandler: handlers.Commitment,
		PlanHandler:       handlers.Plan,
		CheckinHandler:    handlers.Checkin,
		TaskHandler:       handlers.Task,
		MetricsHandler:    handlers.Metrics,
		JobHandler:        handlers.Job,
		HealthHandler:     handlers.Health,
	})
}

package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/studypact-backend/internal/http/handlers"
	httpMW "github.com/yungbote/studypact-backend/internal/http/middleware"
	"github.com/yungbote/studypact-backend/internal/pkg/envutil"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	CommitmentHandler *httpH.CommitmentHandler
	PlanHandler       *httpH.PlanHandler
	CheckinHandler    *httpH.CheckinHandler
	TaskHandler       *httpH.TaskHandler
	MetricsHandler    *httpH.MetricsHandler
	JobHandler        *httpH.JobHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())
	if envutil.Bool("OTEL_ENABLED", false) {
		r.Use(otelgin.Middleware("studypact"))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.CommitmentHandler != nil {
		api.POST("/intake", cfg.CommitmentHandler.Intake)
		api.POST("/premortem", cfg.CommitmentHandler.Premortem)
		api.GET("/commitment/current", cfg.CommitmentHandler.GetCurrent)
	}

	if cfg.PlanHandler != nil {
		api.POST("/plan/weekly", cfg.PlanHandler.GenerateWeekly)
		api.GET("/plan/current", cfg.PlanHandler.GetCurrent)
	}

	if cfg.CheckinHandler != nil {
		api.POST("/checkin/daily", cfg.CheckinHandler.Daily)
	}

	if cfg.TaskHandler != nil {
		api.GET("/tasks/today", cfg.TaskHandler.ListToday)
		api.PUT("/tasks/:id/complete", cfg.TaskHandler.Complete)
	}

	if cfg.MetricsHandler != nil {
		api.GET("/metrics/summary", cfg.MetricsHandler.Summary)
	}

	if cfg.JobHandler != nil {
		api.GET("/jobs/:id", cfg.JobHandler.GetJob)
	}

	return r
}

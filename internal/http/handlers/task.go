package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/http/response"
	"github.com/yungbote/studypact-backend/internal/services"
)

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// GET /api/tasks/today
func (h *TaskHandler) ListToday(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListToday(reqCtx(c), userID, time.Now().UTC())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tasks": tasks})
}

type completeTaskRequest struct {
	Answers  map[string]string `json:"answers"`
	Code     string            `json:"code"`
	Language string            `json:"language"`
}

// PUT /api/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	userID, ok := requestUser(c)
	if !ok {
		return
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_task_id", err)
		return
	}

	// Body is optional; a bare completion carries no submission.
	var submission *services.TaskSubmission
	var req completeTaskRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		if len(req.Answers) > 0 || req.Code != "" {
			submission = &services.TaskSubmission{
				Answers:  req.Answers,
				Code:     req.Code,
				Language: req.Language,
			}
		}
	}

	task, grade, err := h.tasks.Complete(reqCtx(c), userID, taskID, submission)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out := gin.H{"task": task}
	if grade != nil {
		out["grade"] = grade
	}
	response.RespondOK(c, out)
}

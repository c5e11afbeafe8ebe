package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studypact-backend/internal/pkg/ctxutil"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/services"
	"github.com/yungbote/studypact-backend/internal/types"
)

type planServiceStub struct {
	current *types.Plan
}

func (s *planServiceStub) GenerateWeekly(ctx context.Context, userID, commitmentID uuid.UUID, weekIndex int, force bool) (*types.Plan, error) {
	return nil, nil
}
func (s *planServiceStub) RequestGeneration(dbc dbctx.Context, userID uuid.UUID, force bool) (*types.JobRun, error) {
	return nil, nil
}
func (s *planServiceStub) GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error) {
	return s.current, nil
}

func performGetCurrent(t *testing.T, svc services.PlanService) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/api/plan/current", nil)
	req = req.WithContext(ctxutil.WithRequestData(req.Context(), &ctxutil.RequestData{UserID: uuid.New()}))
	c.Request = req
	NewPlanHandler(svc).GetCurrent(c)
	return w
}

func TestGetCurrentReturnsGroupedSchedule(t *testing.T) {
	mon := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	plan := &types.Plan{
		ID:           uuid.New(),
		WeekFocus:    "Consensus fundamentals",
		MicroProject: "Build a toy replicated log",
		ReviewTopics: datatypes.JSON([]byte(`["quorums","leader election"]`)),
		Tasks: []*types.DailyTask{
			{Task: "Read chapter 4", Date: mon, TimeboxMin: 30, TaskType: types.TaskTypeReading, Priority: 1, Status: types.TaskStatusPending},
			{Task: "Leader election exercise", Date: mon, TimeboxMin: 45, TaskType: types.TaskTypeCoding, Priority: 2, Status: types.TaskStatusPending},
			{Task: "Flashcards", Date: mon.AddDate(0, 0, 1), TimeboxMin: 15, TaskType: types.TaskTypeReview, Priority: 3, Status: types.TaskStatusPending},
		},
	}

	w := performGetCurrent(t, &planServiceStub{current: plan})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var got struct {
		WeekFocus string `json:"week_focus"`
		Plan      struct {
			MicroProject string   `json:"micro_project"`
			ReviewTopics []string `json:"review_topics"`
		} `json:"plan"`
		Schedule []struct {
			Date  string            `json:"date"`
			Tasks []types.DailyTask `json:"tasks"`
		} `json:"schedule"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.WeekFocus != "Consensus fundamentals" {
		t.Fatalf("week_focus = %q", got.WeekFocus)
	}
	if got.Plan.MicroProject != "Build a toy replicated log" {
		t.Fatalf("micro_project = %q", got.Plan.MicroProject)
	}
	if len(got.Plan.ReviewTopics) != 2 || got.Plan.ReviewTopics[0] != "quorums" {
		t.Fatalf("review_topics = %v", got.Plan.ReviewTopics)
	}
	if len(got.Schedule) != 2 {
		t.Fatalf("schedule days = %d, want 2", len(got.Schedule))
	}
	if got.Schedule[0].Date != "2026-03-02" || len(got.Schedule[0].Tasks) != 2 {
		t.Fatalf("day 1 = %s with %d tasks", got.Schedule[0].Date, len(got.Schedule[0].Tasks))
	}
	if got.Schedule[1].Date != "2026-03-03" || len(got.Schedule[1].Tasks) != 1 {
		t.Fatalf("day 2 = %s with %d tasks", got.Schedule[1].Date, len(got.Schedule[1].Tasks))
	}
}

func TestGetCurrentAbsentPlanIsNotAnError(t *testing.T) {
	w := performGetCurrent(t, &planServiceStub{})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := got["plan"]; !ok || v != nil {
		t.Fatalf("plan = %v, want explicit null", v)
	}
}

package services

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/clients/openai"
	"github.com/yungbote/studypact-backend/internal/clients/ragworker"
	redisx "github.com/yungbote/studypact-backend/internal/clients/redis"
	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

//go:embed plan_template.yaml
var defaultPlanTemplate []byte

const (
	planLockTTL       = 2 * time.Minute
	planLockWait      = 30 * time.Second
	retrievalTimeout  = 10 * time.Second
	retrievalTopK     = 5
	minTaskTimeboxMin = 15
	maxStudyDays      = 5
)

// PlanService produces and reads weekly plans. GenerateWeekly is the
// job-side entrypoint (implements the plan_generate handler's
// Generator); RequestGeneration is the request-side enqueue.
type PlanService interface {
	GenerateWeekly(ctx context.Context, userID, commitmentID uuid.UUID, weekIndex int, force bool) (*types.Plan, error)
	RequestGeneration(dbc dbctx.Context, userID uuid.UUID, force bool) (*types.JobRun, error)
	GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error)
}

type planService struct {
	db          *gorm.DB
	log         *logger.Logger
	commitments repos.CommitmentRepo
	plans       repos.PlanRepo
	risks       repos.PremortemRiskRepo
	rules       repos.MemoryRuleRepo
	snapshots   repos.SignalSnapshotRepo
	retrievals  repos.RetrievalLogRepo

	ai     openai.Client
	rag    ragworker.Client
	locker redisx.Locker
	jobs   JobService

	inflight singleflight.Group
	template planTemplate
}

func NewPlanService(
	db *gorm.DB,
	baseLog *logger.Logger,
	commitments repos.CommitmentRepo,
	plans repos.PlanRepo,
	risks repos.PremortemRiskRepo,
	rules repos.MemoryRuleRepo,
	snapshots repos.SignalSnapshotRepo,
	retrievals repos.RetrievalLogRepo,
	ai openai.Client,
	rag ragworker.Client,
	locker redisx.Locker,
	jobs JobService,
) (PlanService, error) {
	tpl, err := loadPlanTemplate()
	if err != nil {
		return nil, err
	}
	return &planService{
		db:          db,
		log:         baseLog.With("service", "PlanService"),
		commitments: commitments,
		plans:       plans,
		risks:       risks,
		rules:       rules,
		snapshots:   snapshots,
		retrievals:  retrievals,
		ai:          ai,
		rag:         rag,
		locker:      locker,
		jobs:        jobs,
		template:    tpl,
	}, nil
}

type planTemplate struct {
	WeekFocus    string   `yaml:"week_focus"`
	MicroProject string   `yaml:"micro_project"`
	ReviewTopics []string `yaml:"review_topics"`
	Daily        []struct {
		Task     string `yaml:"task"`
		Type     string `yaml:"type"`
		Priority int    `yaml:"priority"`
	} `yaml:"daily"`
}

// loadPlanTemplate parses the embedded fallback template, or the file
// named by PLAN_TEMPLATE_PATH when set.
func loadPlanTemplate() (planTemplate, error) {
	raw := defaultPlanTemplate
	if path := strings.TrimSpace(os.Getenv("PLAN_TEMPLATE_PATH")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return planTemplate{}, fmt.Errorf("read plan template %s: %w", path, err)
		}
		raw = b
	}
	var tpl planTemplate
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return planTemplate{}, fmt.Errorf("parse plan template: %w", err)
	}
	if len(tpl.Daily) == 0 {
		return planTemplate{}, fmt.Errorf("plan template has no daily tasks")
	}
	return tpl, nil
}

func (s *planService) RequestGeneration(dbc dbctx.Context, userID uuid.UUID, force bool) (*types.JobRun, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	commitment, err := s.commitments.GetActiveByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("%w: no active commitment", pkgerrors.ErrNotFound)
	}
	week := commitment.CurrentWeek(time.Now().UTC())
	job, _, err := s.jobs.Enqueue(dbc, userID, types.JobTypePlanGenerate,
		planIdempotencyKey(commitment.ID, week),
		map[string]any{
			"commitment_id": commitment.ID.String(),
			"week_index":    week,
			"force":         force,
		})
	return job, err
}

func (s *planService) GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	return s.plans.GetCurrentByUser(dbc, userID)
}

// GenerateWeekly is idempotent per (commitment, week): an existing
// active plan is returned as-is unless force is set. Concurrent calls
// for the same week collapse in-process via singleflight and
// cross-process via a redis lock; the loser returns the winner's plan.
func (s *planService) GenerateWeekly(ctx context.Context, userID, commitmentID uuid.UUID, weekIndex int, force bool) (*types.Plan, error) {
	if userID == uuid.Nil || commitmentID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing ids", pkgerrors.ErrInvalidArgument)
	}
	if weekIndex < 1 {
		return nil, fmt.Errorf("%w: week_index must be >= 1", pkgerrors.ErrInvalidArgument)
	}

	key := fmt.Sprintf("plan:%s:%d", commitmentID, weekIndex)
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		return s.generateLocked(ctx, userID, commitmentID, weekIndex, force, key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Plan), nil
}

func (s *planService) generateLocked(ctx context.Context, userID, commitmentID uuid.UUID, weekIndex int, force bool, key string) (*types.Plan, error) {
	dbc := dbctx.Context{Ctx: ctx}

	commitment, err := s.commitments.GetByID(dbc, commitmentID)
	if err != nil {
		return nil, fmt.Errorf("load commitment: %w", err)
	}
	if commitment == nil || commitment.UserID != userID {
		return nil, fmt.Errorf("%w: commitment not found", pkgerrors.ErrNotFound)
	}

	existing, err := s.plans.GetActiveByCommitmentWeek(dbc, commitmentID, weekIndex)
	if err != nil {
		return nil, fmt.Errorf("load existing plan: %w", err)
	}
	if existing != nil && !force {
		return existing, nil
	}

	if s.locker != nil {
		release, acquired, err := s.locker.Acquire(ctx, key, planLockTTL)
		if err != nil {
			return nil, fmt.Errorf("plan lock: %w", err)
		}
		if !acquired {
			return s.awaitOtherGenerator(dbc, commitmentID, weekIndex, existing)
		}
		defer release()

		// A contender may have committed between the first check and the
		// lock grant; re-read so we don't supersede its fresh plan.
		existing, err = s.plans.GetActiveByCommitmentWeek(dbc, commitmentID, weekIndex)
		if err != nil {
			return nil, fmt.Errorf("load existing plan: %w", err)
		}
		if existing != nil && !force {
			return existing, nil
		}
	}

	draft, citations, err := s.compose(ctx, commitment, weekIndex)
	if err != nil {
		return nil, err
	}

	plan, tasks := s.materialize(commitment, weekIndex, draft)
	if len(tasks) == 0 && commitment.WeeklyHours > 0 {
		// The draft came back empty; the template always yields tasks.
		plan, tasks = s.materialize(commitment, weekIndex, s.templateDraft(commitment))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.plans.DeactivateForWeek(inner, commitmentID, weekIndex); err != nil {
			return fmt.Errorf("deactivate prior plan: %w", err)
		}
		version, err := s.plans.NextVersion(inner, commitmentID, weekIndex)
		if err != nil {
			return fmt.Errorf("next version: %w", err)
		}
		plan.Version = version
		return s.plans.CreateWithTasks(inner, plan, tasks)
	})
	if err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}
	plan.Tasks = tasks

	s.logRetrieval(ctx, userID, commitment, weekIndex, citations)

	s.log.Info("Weekly plan generated",
		"user_id", userID,
		"commitment_id", commitmentID,
		"week_index", weekIndex,
		"version", plan.Version,
		"task_count", len(tasks),
		"forced", force,
	)
	return plan, nil
}

// awaitOtherGenerator polls for the plan another process is writing.
func (s *planService) awaitOtherGenerator(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int, prior *types.Plan) (*types.Plan, error) {
	deadline := time.Now().Add(planLockWait)
	for time.Now().Before(deadline) {
		select {
		case <-dbc.Ctx.Done():
			return nil, dbc.Ctx.Err()
		case <-time.After(time.Second):
		}
		plan, err := s.plans.GetActiveByCommitmentWeek(dbc, commitmentID, weekIndex)
		if err != nil {
			return nil, err
		}
		if plan != nil && (prior == nil || plan.ID != prior.ID) {
			return plan, nil
		}
	}
	return nil, fmt.Errorf("%w: plan generation already in progress", pkgerrors.ErrConflict)
}

// planDraft is the intermediate plan shape, produced either by the
// model (json_schema) or by the embedded template.
type planDraft struct {
	WeekFocus    string   `json:"week_focus"`
	MicroProject string   `json:"micro_project"`
	ReviewTopics []string `json:"review_topics"`
	Days         []struct {
		DayOffset int `json:"day_offset"`
		Tasks     []struct {
			Task       string `json:"task"`
			Type       string `json:"type"`
			TimeboxMin int    `json:"timebox_min"`
			Priority   int    `json:"priority"`
		} `json:"tasks"`
	} `json:"days"`
}

// compose gathers retrieval context and asks the model for the weekly
// draft. A model timeout aborts generation (nothing is persisted);
// any other model failure falls back to the embedded template.
func (s *planService) compose(ctx context.Context, commitment *types.Commitment, weekIndex int) (planDraft, []ragworker.SearchResult, error) {
	citations := s.retrieve(ctx, commitment, weekIndex)

	if s.ai == nil {
		return s.templateDraft(commitment), citations, nil
	}

	dbc := dbctx.Context{Ctx: ctx}
	risks, err := s.risks.ListByCommitment(dbc, commitment.ID)
	if err != nil {
		s.log.Warn("List premortem risks failed", "commitment_id", commitment.ID, "error", err)
	}
	rules, err := s.rules.ListActiveByUser(dbc, commitment.UserID)
	if err != nil {
		s.log.Warn("List memory rules failed", "user_id", commitment.UserID, "error", err)
	}
	snapshot, err := s.snapshots.GetLatestByUser(dbc, commitment.UserID)
	if err != nil {
		s.log.Warn("Load latest snapshot failed", "user_id", commitment.UserID, "error", err)
	}

	resp, err := s.ai.GenerateJSON(ctx,
		planSystemPrompt,
		s.planUserPrompt(commitment, weekIndex, risks, rules, snapshot, citations),
		"weekly_plan", planDraftSchema())
	if err != nil {
		if isUpstreamTimeout(err) {
			return planDraft{}, citations, fmt.Errorf("%w: plan model: %v", pkgerrors.ErrUpstreamTimeout, err)
		}
		s.log.Warn("Plan model failed; using template", "commitment_id", commitment.ID, "week_index", weekIndex, "error", err)
		return s.templateDraft(commitment), citations, nil
	}

	var draft planDraft
	b, _ := json.Marshal(resp)
	if err := json.Unmarshal(b, &draft); err != nil || len(draft.Days) == 0 {
		s.log.Warn("Plan model returned unusable draft; using template", "commitment_id", commitment.ID, "error", err)
		return s.templateDraft(commitment), citations, nil
	}
	return draft, citations, nil
}

const planSystemPrompt = "You are a study coach composing one week of daily tasks. " +
	"Honor the learner's weekly hour budget, mix task types to their style, and keep each task a single timeboxed action."

func (s *planService) planUserPrompt(
	commitment *types.Commitment,
	weekIndex int,
	risks []*types.PremortemRisk,
	rules []*types.MemoryRule,
	snapshot *types.SignalSnapshot,
	citations []ragworker.SearchResult,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", commitment.Goal)
	fmt.Fprintf(&b, "Week %d of the commitment. Target date: %s.\n", weekIndex, commitment.TargetDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Baseline: %s. Learning style: %s. Budget: %d hours this week.\n",
		commitment.BaselineLevel, commitment.LearningStyle, commitment.WeeklyHours)
	if snapshot != nil {
		fmt.Fprintf(&b, "Current status: %s (adherence %.2f, knowledge %.2f, retention %.2f).\n",
			snapshot.Status, snapshot.AdherenceRate, snapshot.KnowledgeScore, snapshot.RetentionScore)
	}
	if len(risks) > 0 {
		b.WriteString("Known risks and mitigations:\n")
		for _, r := range risks {
			fmt.Fprintf(&b, "- %s -> %s\n", r.Risk, r.Mitigation)
		}
	}
	if len(rules) > 0 {
		b.WriteString("Learner preferences:\n")
		for _, r := range rules {
			fmt.Fprintf(&b, "- %s\n", r.Rule)
		}
	}
	if len(citations) > 0 {
		b.WriteString("Reference material:\n")
		for _, c := range citations {
			fmt.Fprintf(&b, "- %s: %s\n", c.Title, c.Snippet)
		}
	}
	fmt.Fprintf(&b, "Produce day_offset 0-6 with tasks whose timebox_min sums to about %d minutes.\n", commitment.WeeklyHours*60)
	return b.String()
}

func planDraftSchema() map[string]any {
	task := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"task":        map[string]any{"type": "string"},
			"type":        map[string]any{"type": "string", "enum": []string{types.TaskTypeReading, types.TaskTypeCoding, types.TaskTypeReview}},
			"timebox_min": map[string]any{"type": "integer"},
			"priority":    map[string]any{"type": "integer"},
		},
		"required":             []string{"task", "type", "timebox_min", "priority"},
		"additionalProperties": false,
	}
	day := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"day_offset": map[string]any{"type": "integer"},
			"tasks":      map[string]any{"type": "array", "items": task},
		},
		"required":             []string{"day_offset", "tasks"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"week_focus":    map[string]any{"type": "string"},
			"micro_project": map[string]any{"type": "string"},
			"review_topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"days":          map[string]any{"type": "array", "items": day},
		},
		"required":             []string{"week_focus", "micro_project", "review_topics", "days"},
		"additionalProperties": false,
	}
}

// retrieve fetches reference snippets with a bounded timeout. Absent
// or failing retrieval never blocks plan generation.
func (s *planService) retrieve(ctx context.Context, commitment *types.Commitment, weekIndex int) []ragworker.SearchResult {
	if s.rag == nil {
		return nil
	}
	rctx, cancel := context.WithTimeout(ctx, retrievalTimeout)
	defer cancel()
	query := fmt.Sprintf("%s week %d study plan %s level", commitment.Goal, weekIndex, commitment.BaselineLevel)
	results, err := s.rag.Search(rctx, query, retrievalTopK)
	if err != nil {
		s.log.Warn("Retrieval failed; composing without context", "commitment_id", commitment.ID, "error", err)
		return nil
	}
	return results
}

func (s *planService) logRetrieval(ctx context.Context, userID uuid.UUID, commitment *types.Commitment, weekIndex int, citations []ragworker.SearchResult) {
	if s.retrievals == nil || len(citations) == 0 {
		return
	}
	b, _ := json.Marshal(citations)
	row := &types.RetrievalLog{
		UserID:  userID,
		Query:   fmt.Sprintf("%s week %d study plan %s level", commitment.Goal, weekIndex, commitment.BaselineLevel),
		Purpose: "plan_generation",
		Results: datatypes.JSON(b),
	}
	if err := s.retrievals.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		s.log.Warn("Retrieval log write failed", "user_id", userID, "error", err)
	}
}

// templateDraft expands the embedded fallback into a full-week draft
// sized to the commitment's hour budget.
func (s *planService) templateDraft(commitment *types.Commitment) planDraft {
	var draft planDraft
	sub := func(t string) string { return strings.ReplaceAll(t, "{goal}", commitment.Goal) }
	draft.WeekFocus = sub(s.template.WeekFocus)
	draft.MicroProject = sub(s.template.MicroProject)
	draft.ReviewTopics = append(draft.ReviewTopics, s.template.ReviewTopics...)

	totalMin := commitment.WeeklyHours * 60
	days := maxStudyDays
	if totalMin < days*minTaskTimeboxMin {
		days = totalMin / minTaskTimeboxMin
	}
	if days < 1 {
		days = 1
	}
	perDay := totalMin / days

	for d := 0; d < days; d++ {
		slots := len(s.template.Daily)
		if perDay < slots*minTaskTimeboxMin {
			slots = perDay / minTaskTimeboxMin
		}
		if slots < 1 {
			slots = 1
		}
		per := perDay / slots
		if per < minTaskTimeboxMin {
			per = minTaskTimeboxMin
		}
		day := struct {
			DayOffset int `json:"day_offset"`
			Tasks     []struct {
				Task       string `json:"task"`
				Type       string `json:"type"`
				TimeboxMin int    `json:"timebox_min"`
				Priority   int    `json:"priority"`
			} `json:"tasks"`
		}{DayOffset: d}
		for i := 0; i < slots; i++ {
			tpl := s.template.Daily[i%len(s.template.Daily)]
			taskType := tpl.Type
			if commitment.LearningStyle == types.LearningStyleReading && taskType == types.TaskTypeCoding {
				taskType = types.TaskTypeReading
			}
			day.Tasks = append(day.Tasks, struct {
				Task       string `json:"task"`
				Type       string `json:"type"`
				TimeboxMin int    `json:"timebox_min"`
				Priority   int    `json:"priority"`
			}{
				Task:       sub(tpl.Task),
				Type:       taskType,
				TimeboxMin: per,
				Priority:   tpl.Priority,
			})
		}
		draft.Days = append(draft.Days, day)
	}
	return draft
}

// materialize turns a draft into persistable rows, discarding malformed
// entries and anchoring dates to the commitment week.
func (s *planService) materialize(commitment *types.Commitment, weekIndex int, draft planDraft) (*types.Plan, []*types.DailyTask) {
	weekStart := weekStartFor(commitment, weekIndex)
	topics, _ := json.Marshal(draft.ReviewTopics)

	plan := &types.Plan{
		ID:           uuid.New(),
		CommitmentID: commitment.ID,
		UserID:       commitment.UserID,
		WeekIndex:    weekIndex,
		WeekStart:    weekStart,
		WeekFocus:    strings.TrimSpace(draft.WeekFocus),
		MicroProject: strings.TrimSpace(draft.MicroProject),
		ReviewTopics: datatypes.JSON(topics),
		Version:      1,
		IsActive:     true,
	}
	if plan.WeekFocus == "" {
		plan.WeekFocus = commitment.Goal
	}

	var tasks []*types.DailyTask
	for _, day := range draft.Days {
		if day.DayOffset < 0 || day.DayOffset > 6 {
			continue
		}
		date := weekStart.AddDate(0, 0, day.DayOffset)
		for _, t := range day.Tasks {
			title := strings.TrimSpace(t.Task)
			if title == "" {
				continue
			}
			taskType := t.Type
			if !types.ValidTaskType(taskType) {
				taskType = types.TaskTypeReading
			}
			timebox := t.TimeboxMin
			if timebox <= 0 {
				timebox = minTaskTimeboxMin
			}
			priority := t.Priority
			if priority < 1 {
				priority = 3
			}
			tasks = append(tasks, &types.DailyTask{
				PlanID:     plan.ID,
				Date:       date,
				Task:       title,
				TimeboxMin: timebox,
				TaskType:   taskType,
				Status:     types.TaskStatusPending,
				Priority:   priority,
			})
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].Date.Equal(tasks[j].Date) {
			return tasks[i].Date.Before(tasks[j].Date)
		}
		return tasks[i].Priority < tasks[j].Priority
	})
	return plan, tasks
}

// weekStartFor returns the date the given 1-based commitment week begins.
func weekStartFor(c *types.Commitment, weekIndex int) time.Time {
	start := time.Date(c.CreatedAt.Year(), c.CreatedAt.Month(), c.CreatedAt.Day(), 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 0, (weekIndex-1)*7)
}

// isUpstreamTimeout reports whether a collaborator error was a timeout
// rather than a refusal or malformed output.
func isUpstreamTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pkgerrors.ErrUpstreamTimeout) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

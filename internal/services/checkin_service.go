package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/clients/openai"
	"github.com/yungbote/studypact-backend/internal/clients/ragworker"
	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/learning"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

const (
	adviceTimeout     = 8 * time.Second
	maxDecisionTasks  = 3
	checkinRetrievalK = 3

	// minNarrativeLen keeps one-word throwaway reports out; both
	// narrative fields must carry at least this many characters.
	minNarrativeLen = 10

	// narratedTaskMinOverlap is how many significant words a pending
	// task must share with the yesterday narrative to count as done.
	narratedTaskMinOverlap = 2
)

// CheckinInput is the daily self-report.
type CheckinInput struct {
	Date      time.Time `json:"date"`
	Yesterday string    `json:"yesterday"`
	Today     string    `json:"today"`
	Blockers  string    `json:"blockers"`
}

// CheckinService turns a daily self-report into a decision: recompute
// signals, classify, adapt, surface next tasks and advice, and trigger
// a plan regeneration when the user is at risk.
type CheckinService interface {
	Process(dbc dbctx.Context, userID uuid.UUID, in CheckinInput) (*types.Decision, error)
}

type checkinService struct {
	db         *gorm.DB
	log        *logger.Logger
	checkins   repos.CheckinRepo
	tasks      repos.DailyTaskRepo
	risks      repos.PremortemRiskRepo
	rules      repos.MemoryRuleRepo
	retrievals repos.RetrievalLogRepo

	signals SignalService
	plans   PlanService
	ai      openai.Client
	rag     ragworker.Client
}

func NewCheckinService(
	db *gorm.DB,
	baseLog *logger.Logger,
	checkins repos.CheckinRepo,
	tasks repos.DailyTaskRepo,
	risks repos.PremortemRiskRepo,
	rules repos.MemoryRuleRepo,
	retrievals repos.RetrievalLogRepo,
	signals SignalService,
	plans PlanService,
	ai openai.Client,
	rag ragworker.Client,
) CheckinService {
	return &checkinService{
		db:         db,
		log:        baseLog.With("service", "CheckinService"),
		checkins:   checkins,
		tasks:      tasks,
		risks:      risks,
		rules:      rules,
		retrievals: retrievals,
		signals:    signals,
		plans:      plans,
		ai:         ai,
		rag:        rag,
	}
}

func (s *checkinService) Process(dbc dbctx.Context, userID uuid.UUID, in CheckinInput) (*types.Decision, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	in.Yesterday = strings.TrimSpace(in.Yesterday)
	in.Today = strings.TrimSpace(in.Today)
	in.Blockers = strings.TrimSpace(in.Blockers)
	if len(in.Yesterday) < minNarrativeLen || len(in.Today) < minNarrativeLen {
		return nil, fmt.Errorf("%w: yesterday and today must each be at least %d characters", pkgerrors.ErrInvalidArgument, minNarrativeLen)
	}
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	// Same-day resubmission overwrites the prior record.
	record := &types.CheckinRecord{
		UserID:    userID,
		Date:      date,
		Yesterday: in.Yesterday,
		Today:     in.Today,
		Blockers:  in.Blockers,
	}
	if err := s.checkins.Upsert(dbc, record); err != nil {
		return nil, fmt.Errorf("upsert checkin: %w", err)
	}

	// Credit narrated work before signals so completions count into
	// this week's adherence.
	s.completeNarratedTasks(dbc, userID, date, in.Yesterday)

	now := time.Now().UTC()
	sig, commitment, err := s.signals.Compute(dbc, userID, now)
	if err != nil {
		return nil, err
	}
	if _, err := s.signals.Snapshot(dbc, userID, sig); err != nil {
		return nil, err
	}

	mitigations := s.mitigationsFor(dbc, commitment, sig)
	action := learning.Decide(sig, mitigations)

	advice, resources := s.adviseAndRetrieve(dbc.Ctx, userID, commitment, sig, in)

	weekStart, weekEnd := commitmentWeekBounds(commitment, now)
	weekPending, err := s.tasks.ListPendingByUserRange(dbc, userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("week's pending tasks: %w", err)
	}
	nextTasks := rankNextTasks(weekPending, in.Today)

	s.detectMemoryRules(dbc, userID, in)

	if sig.Status == types.StatusAtRisk {
		if _, err := s.plans.RequestGeneration(dbc, userID, true); err != nil {
			s.log.Warn("At-risk plan regeneration enqueue failed", "user_id", userID, "error", err)
		}
	}

	decision := &types.Decision{
		Reason:        decisionReason(sig, action),
		Advice:        advice,
		Signals:       sig,
		Action:        action,
		NextTasks:     nextTasks,
		ResourcesUsed: resources,
	}

	b, err := json.Marshal(decision)
	if err != nil {
		return nil, fmt.Errorf("marshal decision: %w", err)
	}
	record.DecisionJSON = datatypes.JSON(b)
	if err := s.checkins.Upsert(dbc, record); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}
	return decision, nil
}

// mitigationsFor selects premortem mitigations to surface, highest
// priority first. Only relevant when the status warrants action.
func (s *checkinService) mitigationsFor(dbc dbctx.Context, commitment *types.Commitment, sig types.Signals) []string {
	if sig.Status != types.StatusAtRisk && sig.Status != types.StatusRecovering {
		return nil
	}
	risks, err := s.risks.ListByCommitment(dbc, commitment.ID)
	if err != nil {
		s.log.Warn("List risks failed", "commitment_id", commitment.ID, "error", err)
		return nil
	}
	out := make([]string, 0, len(risks))
	for _, r := range risks {
		if m := strings.TrimSpace(r.Mitigation); m != "" {
			out = append(out, m)
		}
	}
	return out
}

// adviseAndRetrieve runs the reasoning and retrieval collaborators in
// parallel under a shared deadline. Both are best-effort: a timeout or
// failure drops that part of the decision, never the decision itself.
func (s *checkinService) adviseAndRetrieve(ctx context.Context, userID uuid.UUID, commitment *types.Commitment, sig types.Signals, in CheckinInput) (string, []types.ResourceUsed) {
	var (
		advice    string
		resources []types.ResourceUsed
	)
	bounded, cancel := context.WithTimeout(ctx, adviceTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(bounded)
	g.Go(func() error {
		if s.ai == nil {
			return nil
		}
		text, err := s.ai.GenerateText(gctx, adviceSystemPrompt, advicePrompt(commitment, sig, in))
		if err != nil {
			s.log.Warn("Advice generation failed; omitting", "user_id", userID, "error", err)
			return nil
		}
		advice = strings.TrimSpace(text)
		return nil
	})
	g.Go(func() error {
		if s.rag == nil || in.Blockers == "" {
			return nil
		}
		query := fmt.Sprintf("%s: %s", commitment.Goal, in.Blockers)
		results, err := s.rag.Search(gctx, query, checkinRetrievalK)
		if err != nil {
			s.log.Warn("Check-in retrieval failed; omitting", "user_id", userID, "error", err)
			return nil
		}
		for _, r := range results {
			resources = append(resources, types.ResourceUsed{Title: r.Title, URL: r.URL, Relevance: r.Score})
		}
		s.logRetrieval(ctx, userID, query, results)
		return nil
	})
	_ = g.Wait()
	return advice, resources
}

const adviceSystemPrompt = "You are a study coach. Give two or three sentences of direct, specific advice for today. No preamble."

func advicePrompt(commitment *types.Commitment, sig types.Signals, in CheckinInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", commitment.Goal)
	fmt.Fprintf(&b, "Status: %s (adherence %.2f, knowledge %.2f, retention %.2f)\n",
		sig.Status, sig.Adherence, sig.Knowledge, sig.Retention)
	fmt.Fprintf(&b, "Yesterday: %s\n", in.Yesterday)
	fmt.Fprintf(&b, "Today: %s\n", in.Today)
	if in.Blockers != "" {
		fmt.Fprintf(&b, "Blockers: %s\n", in.Blockers)
	}
	return b.String()
}

func (s *checkinService) logRetrieval(ctx context.Context, userID uuid.UUID, query string, results []ragworker.SearchResult) {
	if s.retrievals == nil || len(results) == 0 {
		return
	}
	b, _ := json.Marshal(results)
	row := &types.RetrievalLog{
		UserID:  userID,
		Query:   query,
		Purpose: "checkin",
		Results: datatypes.JSON(b),
	}
	if err := s.retrievals.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		s.log.Warn("Retrieval log write failed", "user_id", userID, "error", err)
	}
}

// detectMemoryRules mines blunt behavior patterns out of the report.
// Rules are deduped against the active set by rule text.
func (s *checkinService) detectMemoryRules(dbc dbctx.Context, userID uuid.UUID, in CheckinInput) {
	candidates := detectRuleCandidates(in)
	if len(candidates) == 0 {
		return
	}
	active, err := s.rules.ListActiveByUser(dbc, userID)
	if err != nil {
		s.log.Warn("List memory rules failed", "user_id", userID, "error", err)
		return
	}
	existing := make(map[string]bool, len(active))
	for _, r := range active {
		existing[r.Rule] = true
	}
	for _, rule := range candidates {
		if existing[rule] {
			continue
		}
		if err := s.rules.Create(dbc, &types.MemoryRule{UserID: userID, Rule: rule, Source: "checkin"}); err != nil {
			s.log.Warn("Create memory rule failed", "user_id", userID, "error", err)
		}
	}
}

func detectRuleCandidates(in CheckinInput) []string {
	text := strings.ToLower(in.Yesterday + " " + in.Blockers)
	var out []string
	if strings.Contains(text, "no time") || strings.Contains(text, "busy") || strings.Contains(text, "too long") {
		out = append(out, "Often time constrained; prefer shorter timeboxes")
	}
	if strings.Contains(text, "skipped") || strings.Contains(text, "didn't do") || strings.Contains(text, "did not do") {
		out = append(out, "Tends to skip tasks; front-load the highest priority task")
	}
	if strings.Contains(text, "too hard") || strings.Contains(text, "stuck") || strings.Contains(text, "confus") {
		out = append(out, "Gets stuck on difficulty spikes; add a review step before new material")
	}
	return out
}

// completeNarratedTasks marks scheduled tasks the yesterday narrative
// plausibly reports as done. Matching is loose word overlap against
// pending tasks scheduled yesterday or today; failures only log.
func (s *checkinService) completeNarratedTasks(dbc dbctx.Context, userID uuid.UUID, date time.Time, yesterday string) {
	words := tokenSet(yesterday)
	if len(words) == 0 {
		return
	}
	now := time.Now().UTC()
	seen := map[uuid.UUID]bool{}
	for _, day := range []time.Time{date.AddDate(0, 0, -1), date} {
		tasks, err := s.tasks.ListByUserDate(dbc, userID, day)
		if err != nil {
			s.log.Warn("List tasks for narrated completion failed", "user_id", userID, "error", err)
			continue
		}
		for _, t := range tasks {
			if seen[t.ID] || t.Status != types.TaskStatusPending {
				continue
			}
			if overlapCount(words, t.Task) < narratedTaskMinOverlap {
				continue
			}
			seen[t.ID] = true
			if err := s.tasks.MarkCompleted(dbc, t.ID, now); err != nil {
				s.log.Warn("Mark narrated task completed failed", "user_id", userID, "task_id", t.ID, "error", err)
			}
		}
	}
}

// rankNextTasks orders the week's pending tasks by priority then
// scheduled date; the today narrative only breaks ties.
func rankNextTasks(weekPending []*types.DailyTask, narrative string) []types.NextTask {
	words := tokenSet(narrative)
	ranked := make([]*types.DailyTask, 0, len(weekPending))
	for _, t := range weekPending {
		if t.Status == types.TaskStatusPending {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority < ranked[j].Priority
		}
		if !ranked[i].Date.Equal(ranked[j].Date) {
			return ranked[i].Date.Before(ranked[j].Date)
		}
		return overlapCount(words, ranked[i].Task) > overlapCount(words, ranked[j].Task)
	})
	out := make([]types.NextTask, 0, maxDecisionTasks)
	for _, t := range ranked {
		if len(out) == maxDecisionTasks {
			break
		}
		prio := t.Priority
		out = append(out, types.NextTask{
			Task:       t.Task,
			TimeboxMin: t.TimeboxMin,
			Type:       t.TaskType,
			Priority:   &prio,
		})
	}
	return out
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,!?;:()\"'")
		if len(w) > 3 {
			out[w] = true
		}
	}
	return out
}

func overlapCount(words map[string]bool, text string) int {
	n := 0
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:()\"'")
		if len(w) > 3 && words[w] {
			n++
		}
	}
	return n
}

func decisionReason(sig types.Signals, action types.Action) string {
	switch action.PlanAdjustment {
	case types.AdjustReduceScope:
		return fmt.Sprintf("Adherence is %.0f%%; shrinking this week's scope so the plan stays achievable.", sig.Adherence*100)
	case types.AdjustRepeatConcepts:
		return fmt.Sprintf("Retention is at %.0f%%; repeating recent concepts before moving on.", sig.Retention*100)
	case types.AdjustIncreaseChallenge:
		return "Strong knowledge and adherence; stepping up the challenge."
	}
	switch sig.Status {
	case types.StatusAtRisk:
		return "Signals put you at risk this week; the plan is being rebuilt around your constraints."
	case types.StatusRecovering:
		return "Back on track after a rough patch; keeping the plan steady."
	}
	return "On track; keeping the current plan."
}

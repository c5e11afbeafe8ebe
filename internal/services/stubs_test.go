package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studypact-backend/internal/clients/evaluator"
	"github.com/yungbote/studypact-backend/internal/clients/ragworker"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

func dbcNoTx() dbctx.Context {
	return dbctx.Context{Ctx: context.Background()}
}

func testLogger(tb interface{ Fatalf(string, ...any) }) *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("logger: %v", err)
	}
	return log
}

type fakeCommitmentRepo struct {
	getByID     func(id uuid.UUID) (*types.Commitment, error)
	getActive   func(userID uuid.UUID) (*types.Commitment, error)
	deactivated []uuid.UUID
	created     []*types.Commitment
	updates     []map[string]interface{}
}

func (f *fakeCommitmentRepo) Create(dbc dbctx.Context, row *types.Commitment) error {
	f.created = append(f.created, row)
	return nil
}
func (f *fakeCommitmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Commitment, error) {
	if f.getByID == nil {
		return nil, nil
	}
	return f.getByID(id)
}
func (f *fakeCommitmentRepo) GetActiveByUser(dbc dbctx.Context, userID uuid.UUID) (*types.Commitment, error) {
	if f.getActive == nil {
		return nil, nil
	}
	return f.getActive(userID)
}
func (f *fakeCommitmentRepo) DeactivateAllForUser(dbc dbctx.Context, userID uuid.UUID) error {
	f.deactivated = append(f.deactivated, userID)
	return nil
}
func (f *fakeCommitmentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	f.updates = append(f.updates, updates)
	return nil
}

type fakePlanRepo struct {
	getActiveByWeek func(commitmentID uuid.UUID, weekIndex int) (*types.Plan, error)
	getCurrent      func(userID uuid.UUID) (*types.Plan, error)
	created         int
}

func (f *fakePlanRepo) CreateWithTasks(dbc dbctx.Context, plan *types.Plan, tasks []*types.DailyTask) error {
	f.created++
	return nil
}
func (f *fakePlanRepo) GetActiveByCommitmentWeek(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) (*types.Plan, error) {
	if f.getActiveByWeek == nil {
		return nil, nil
	}
	return f.getActiveByWeek(commitmentID, weekIndex)
}
func (f *fakePlanRepo) GetCurrentByUser(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error) {
	if f.getCurrent == nil {
		return nil, nil
	}
	return f.getCurrent(userID)
}
func (f *fakePlanRepo) DeactivateForWeek(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) error {
	return nil
}
func (f *fakePlanRepo) NextVersion(dbc dbctx.Context, commitmentID uuid.UUID, weekIndex int) (int, error) {
	return 1, nil
}

type fakeRiskRepo struct {
	rows     []*types.PremortemRisk
	replaced [][]*types.PremortemRisk
}

func (f *fakeRiskRepo) ReplaceForCommitment(dbc dbctx.Context, commitmentID uuid.UUID, rows []*types.PremortemRisk) error {
	f.replaced = append(f.replaced, rows)
	return nil
}
func (f *fakeRiskRepo) ListByCommitment(dbc dbctx.Context, commitmentID uuid.UUID) ([]*types.PremortemRisk, error) {
	return f.rows, nil
}

type fakeRuleRepo struct {
	active  []*types.MemoryRule
	created []*types.MemoryRule
}

func (f *fakeRuleRepo) Create(dbc dbctx.Context, row *types.MemoryRule) error {
	f.created = append(f.created, row)
	return nil
}
func (f *fakeRuleRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.MemoryRule, error) {
	return f.active, nil
}
func (f *fakeRuleRepo) Deactivate(dbc dbctx.Context, userID, ruleID uuid.UUID) error { return nil }

type fakeSnapshotRepo struct {
	latest  *types.SignalSnapshot
	created []*types.SignalSnapshot
}

func (f *fakeSnapshotRepo) Create(dbc dbctx.Context, row *types.SignalSnapshot) error {
	f.created = append(f.created, row)
	return nil
}
func (f *fakeSnapshotRepo) GetLatestByUser(dbc dbctx.Context, userID uuid.UUID) (*types.SignalSnapshot, error) {
	return f.latest, nil
}
func (f *fakeSnapshotRepo) ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.SignalSnapshot, error) {
	return nil, nil
}

type fakeRetrievalRepo struct {
	created []*types.RetrievalLog
}

func (f *fakeRetrievalRepo) Create(dbc dbctx.Context, row *types.RetrievalLog) error {
	f.created = append(f.created, row)
	return nil
}
func (f *fakeRetrievalRepo) ListRecentByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.RetrievalLog, error) {
	return f.created, nil
}

type fakeTaskRepo struct {
	byDate      []*types.DailyTask
	pendingWeek []*types.DailyTask
	owned       func(userID, taskID uuid.UUID) (*types.DailyTask, error)
	completed   []uuid.UUID
	weekSched   int
	weekDone    int
	lastReview  *time.Time
	markCompErr error
}

func (f *fakeTaskRepo) ListByPlan(dbc dbctx.Context, planID uuid.UUID) ([]*types.DailyTask, error) {
	return nil, nil
}
func (f *fakeTaskRepo) ListByUserDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) ([]*types.DailyTask, error) {
	return f.byDate, nil
}
func (f *fakeTaskRepo) ListPendingByUserRange(dbc dbctx.Context, userID uuid.UUID, start, end time.Time) ([]*types.DailyTask, error) {
	return f.pendingWeek, nil
}
func (f *fakeTaskRepo) GetOwned(dbc dbctx.Context, userID, taskID uuid.UUID) (*types.DailyTask, error) {
	if f.owned == nil {
		return nil, nil
	}
	return f.owned(userID, taskID)
}
func (f *fakeTaskRepo) MarkCompleted(dbc dbctx.Context, taskID uuid.UUID, at time.Time) error {
	if f.markCompErr != nil {
		return f.markCompErr
	}
	f.completed = append(f.completed, taskID)
	return nil
}
func (f *fakeTaskRepo) WeekMinutes(dbc dbctx.Context, userID uuid.UUID, weekStart, weekEnd time.Time) (int, int, error) {
	return f.weekSched, f.weekDone, nil
}
func (f *fakeTaskRepo) LastReviewCompletedAt(dbc dbctx.Context, userID uuid.UUID) (*time.Time, error) {
	return f.lastReview, nil
}

type fakeGradeRepo struct {
	scores  []float64
	created []*types.GradeResult
}

func (f *fakeGradeRepo) Create(dbc dbctx.Context, row *types.GradeResult) error {
	f.created = append(f.created, row)
	return nil
}
func (f *fakeGradeRepo) RecentScores(dbc dbctx.Context, userID uuid.UUID, limit int) ([]float64, error) {
	return f.scores, nil
}

type fakeCheckinRepo struct {
	upserts []*types.CheckinRecord
}

func (f *fakeCheckinRepo) Upsert(dbc dbctx.Context, row *types.CheckinRecord) error {
	f.upserts = append(f.upserts, row)
	return nil
}
func (f *fakeCheckinRepo) GetByUserDate(dbc dbctx.Context, userID uuid.UUID, date time.Time) (*types.CheckinRecord, error) {
	return nil, nil
}
func (f *fakeCheckinRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.CheckinRecord, error) {
	return nil, nil
}

type fakeAI struct {
	generateJSON func(schemaName string) (map[string]any, error)
	generateText func() (string, error)
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	if f.generateJSON == nil {
		return map[string]any{}, nil
	}
	return f.generateJSON(schemaName)
}
func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	if f.generateText == nil {
		return "", nil
	}
	return f.generateText()
}

type fakeRAG struct {
	results []ragworker.SearchResult
	err     error
	calls   int
}

func (f *fakeRAG) Search(ctx context.Context, query string, topK int) ([]ragworker.SearchResult, error) {
	f.calls++
	return f.results, f.err
}

type fakeLocker struct {
	acquired bool
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if !f.acquired {
		return func() {}, false, nil
	}
	return func() { f.released++ }, true, nil
}
func (f *fakeLocker) Close() error { return nil }

type fakeEvaluator struct {
	resp *evaluator.GradeResponse
	err  error
}

func (f *fakeEvaluator) Grade(ctx context.Context, req evaluator.GradeRequest) (*evaluator.GradeResponse, error) {
	return f.resp, f.err
}

type fakeSignalService struct {
	sig        types.Signals
	commitment *types.Commitment
	snapshots  int
}

func (f *fakeSignalService) Compute(dbc dbctx.Context, userID uuid.UUID, now time.Time) (types.Signals, *types.Commitment, error) {
	return f.sig, f.commitment, nil
}
func (f *fakeSignalService) Snapshot(dbc dbctx.Context, userID uuid.UUID, sig types.Signals) (*types.SignalSnapshot, error) {
	f.snapshots++
	return &types.SignalSnapshot{UserID: userID, Status: sig.Status}, nil
}
func (f *fakeSignalService) Summary(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*MetricsSummary, error) {
	return nil, nil
}

type fakePlanService struct {
	forces []bool
}

func (f *fakePlanService) GenerateWeekly(ctx context.Context, userID, commitmentID uuid.UUID, weekIndex int, force bool) (*types.Plan, error) {
	return nil, nil
}
func (f *fakePlanService) RequestGeneration(dbc dbctx.Context, userID uuid.UUID, force bool) (*types.JobRun, error) {
	f.forces = append(f.forces, force)
	return &types.JobRun{ID: uuid.New(), Status: types.JobStatusQueued}, nil
}
func (f *fakePlanService) GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.Plan, error) {
	return nil, nil
}

type fakeJobService struct {
	enqueued []string
}

func (f *fakeJobService) Enqueue(dbc dbctx.Context, ownerUserID uuid.UUID, jobType, idempotencyKey string, payload map[string]any) (*types.JobRun, bool, error) {
	f.enqueued = append(f.enqueued, idempotencyKey)
	return &types.JobRun{ID: uuid.New(), JobType: jobType, Status: types.JobStatusQueued}, true, nil
}
func (f *fakeJobService) GetByIDForRequestUser(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	return nil, nil
}

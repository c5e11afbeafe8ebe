package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/learning"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	"github.com/yungbote/studypact-backend/internal/pkg/envutil"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

// recentGradeWindow bounds how many grade rows feed the knowledge score.
// With decay 0.7 anything past ~15 rows contributes noise-level weight.
const recentGradeWindow = 20

// MetricsSummary is the GET /api/metrics/summary payload.
type MetricsSummary struct {
	AdherenceScore float64 `json:"adherence_score"`
	KnowledgeScore float64 `json:"knowledge_score"`
	RetentionScore float64 `json:"retention_score"`
	Status         string  `json:"status"`
	CurrentWeek    int     `json:"current_week"`
	WeeksRemaining int     `json:"weeks_remaining"`
}

// SignalService computes the three learning signals from persisted
// history and classifies user status. Scoring itself lives in
// internal/learning; this service only feeds it data.
type SignalService interface {
	Compute(dbc dbctx.Context, userID uuid.UUID, now time.Time) (types.Signals, *types.Commitment, error)
	Snapshot(dbc dbctx.Context, userID uuid.UUID, sig types.Signals) (*types.SignalSnapshot, error)
	Summary(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*MetricsSummary, error)
}

type signalService struct {
	db           *gorm.DB
	log          *logger.Logger
	commitments  repos.CommitmentRepo
	tasks        repos.DailyTaskRepo
	grades       repos.GradeResultRepo
	snapshots    repos.SignalSnapshotRepo
	halfLifeDays float64
}

func NewSignalService(
	db *gorm.DB,
	baseLog *logger.Logger,
	commitments repos.CommitmentRepo,
	tasks repos.DailyTaskRepo,
	grades repos.GradeResultRepo,
	snapshots repos.SignalSnapshotRepo,
) SignalService {
	return &signalService{
		db:           db,
		log:          baseLog.With("service", "SignalService"),
		commitments:  commitments,
		tasks:        tasks,
		grades:       grades,
		snapshots:    snapshots,
		halfLifeDays: float64(envutil.Int("RETENTION_HALF_LIFE_DAYS", int(learning.DefaultHalfLifeDays))),
	}
}

// Compute derives adherence/knowledge/retention as of now and classifies
// status against the previous snapshot. Requires an active commitment.
func (s *signalService) Compute(dbc dbctx.Context, userID uuid.UUID, now time.Time) (types.Signals, *types.Commitment, error) {
	var sig types.Signals
	if userID == uuid.Nil {
		return sig, nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}

	commitment, err := s.commitments.GetActiveByUser(dbc, userID)
	if err != nil {
		return sig, nil, fmt.Errorf("load commitment: %w", err)
	}
	if commitment == nil {
		return sig, nil, fmt.Errorf("%w: no active commitment", pkgerrors.ErrNotFound)
	}

	weekStart, weekEnd := commitmentWeekBounds(commitment, now)
	scheduled, completed, err := s.tasks.WeekMinutes(dbc, userID, weekStart, weekEnd)
	if err != nil {
		return sig, nil, fmt.Errorf("week minutes: %w", err)
	}
	sig.Adherence = learning.Adherence(completed, scheduled)

	scores, err := s.grades.RecentScores(dbc, userID, recentGradeWindow)
	if err != nil {
		return sig, nil, fmt.Errorf("recent scores: %w", err)
	}
	sig.Knowledge = learning.Knowledge(scores)

	lastReview, err := s.tasks.LastReviewCompletedAt(dbc, userID)
	if err != nil {
		return sig, nil, fmt.Errorf("last review: %w", err)
	}
	sig.Retention = learning.Retention(lastReview, now, s.halfLifeDays)

	prev, err := s.snapshots.GetLatestByUser(dbc, userID)
	if err != nil {
		return sig, nil, fmt.Errorf("latest snapshot: %w", err)
	}
	prevStatus := ""
	if prev != nil {
		prevStatus = prev.Status
	}
	sig.Status = learning.ClassifyStatus(sig, prevStatus)

	return sig, commitment, nil
}

// Snapshot appends the signal row. Snapshots are append-only; the
// classifier reads the newest row as the previous status.
func (s *signalService) Snapshot(dbc dbctx.Context, userID uuid.UUID, sig types.Signals) (*types.SignalSnapshot, error) {
	row := &types.SignalSnapshot{
		UserID:         userID,
		AdherenceRate:  sig.Adherence,
		KnowledgeScore: sig.Knowledge,
		RetentionScore: sig.Retention,
		Status:         sig.Status,
	}
	if err := s.snapshots.Create(dbc, row); err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return row, nil
}

func (s *signalService) Summary(dbc dbctx.Context, userID uuid.UUID, now time.Time) (*MetricsSummary, error) {
	sig, commitment, err := s.Compute(dbc, userID, now)
	if err != nil {
		return nil, err
	}
	return &MetricsSummary{
		AdherenceScore: sig.Adherence,
		KnowledgeScore: sig.Knowledge,
		RetentionScore: sig.Retention,
		Status:         sig.Status,
		CurrentWeek:    commitment.CurrentWeek(now),
		WeeksRemaining: commitment.WeeksRemaining(now),
	}, nil
}

// commitmentWeekBounds returns the [start, end) date range of the
// commitment week containing now, anchored to the commitment start date.
func commitmentWeekBounds(c *types.Commitment, now time.Time) (time.Time, time.Time) {
	start := time.Date(c.CreatedAt.Year(), c.CreatedAt.Month(), c.CreatedAt.Day(), 0, 0, 0, 0, time.UTC)
	week := c.CurrentWeek(now)
	weekStart := start.AddDate(0, 0, (week-1)*7)
	return weekStart, weekStart.AddDate(0, 0, 7)
}

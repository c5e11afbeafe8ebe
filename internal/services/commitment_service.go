package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/studypact-backend/internal/clients/openai"
	"github.com/yungbote/studypact-backend/internal/data/repos"
	"github.com/yungbote/studypact-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
	"github.com/yungbote/studypact-backend/internal/types"
)

// IntakeInput is the validated payload for creating a commitment.
type IntakeInput struct {
	Goal          string    `json:"goal"`
	TargetDate    time.Time `json:"target_date"`
	BaselineLevel string    `json:"baseline_level"`
	WeeklyHours   int       `json:"weekly_hours"`
	LearningStyle string    `json:"learning_style"`
}

// CommitmentService owns the learning contract lifecycle: intake,
// premortem, and the current-commitment read.
type CommitmentService interface {
	Intake(dbc dbctx.Context, userID uuid.UUID, in IntakeInput) (*types.Commitment, *types.JobRun, error)
	Premortem(dbc dbctx.Context, userID uuid.UUID, reasons []string) ([]*types.PremortemRisk, error)
	GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.Commitment, error)
	ListRisks(dbc dbctx.Context, userID uuid.UUID) ([]*types.PremortemRisk, error)
}

type commitmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	commitments repos.CommitmentRepo
	risks       repos.PremortemRiskRepo
	ai          openai.Client
	jobs        JobService
}

func NewCommitmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	commitments repos.CommitmentRepo,
	risks repos.PremortemRiskRepo,
	ai openai.Client,
	jobs JobService,
) CommitmentService {
	return &commitmentService{
		db:          db,
		log:         baseLog.With("service", "CommitmentService"),
		commitments: commitments,
		risks:       risks,
		ai:          ai,
		jobs:        jobs,
	}
}

// Intake creates the commitment, deactivating any prior one, and
// enqueues generation of the week-1 plan. The returned job run is the
// plan generation job (nil only if enqueue itself failed after the
// commitment committed).
func (s *commitmentService) Intake(dbc dbctx.Context, userID uuid.UUID, in IntakeInput) (*types.Commitment, *types.JobRun, error) {
	if userID == uuid.Nil {
		return nil, nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	if err := validateIntake(&in); err != nil {
		return nil, nil, err
	}

	commitment := &types.Commitment{
		ID:            uuid.New(),
		UserID:        userID,
		Goal:          in.Goal,
		TargetDate:    in.TargetDate,
		BaselineLevel: in.BaselineLevel,
		WeeklyHours:   in.WeeklyHours,
		LearningStyle: in.LearningStyle,
		IsActive:      true,
	}

	err := s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.commitments.DeactivateAllForUser(inner, userID); err != nil {
			return fmt.Errorf("deactivate prior: %w", err)
		}
		if err := s.commitments.Create(inner, commitment); err != nil {
			return fmt.Errorf("create commitment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	job, _, err := s.jobs.Enqueue(dbctx.Context{Ctx: dbc.Ctx}, userID, types.JobTypePlanGenerate,
		planIdempotencyKey(commitment.ID, 1),
		map[string]any{
			"commitment_id": commitment.ID.String(),
			"week_index":    1,
		})
	if err != nil {
		// Commitment exists; the plan can still be requested explicitly.
		s.log.Warn("Enqueue initial plan failed", "user_id", userID, "commitment_id", commitment.ID, "error", err)
		return commitment, nil, nil
	}
	return commitment, job, nil
}

func validateIntake(in *IntakeInput) error {
	in.Goal = strings.TrimSpace(in.Goal)
	if in.Goal == "" {
		return fmt.Errorf("%w: goal is required", pkgerrors.ErrInvalidArgument)
	}
	if in.TargetDate.IsZero() || !in.TargetDate.After(time.Now()) {
		return fmt.Errorf("%w: target_date must be in the future", pkgerrors.ErrInvalidArgument)
	}
	if in.WeeklyHours < 1 || in.WeeklyHours > 40 {
		return fmt.Errorf("%w: weekly_hours must be between 1 and 40", pkgerrors.ErrInvalidArgument)
	}
	switch in.BaselineLevel {
	case types.BaselineBeginner, types.BaselineIntermediate, types.BaselineAdvanced:
	case "":
		in.BaselineLevel = types.BaselineBeginner
	default:
		return fmt.Errorf("%w: unknown baseline_level %q", pkgerrors.ErrInvalidArgument, in.BaselineLevel)
	}
	switch in.LearningStyle {
	case types.LearningStyleMixed, types.LearningStyleCoding, types.LearningStyleReading:
	case "":
		in.LearningStyle = types.LearningStyleMixed
	default:
		return fmt.Errorf("%w: unknown learning_style %q", pkgerrors.ErrInvalidArgument, in.LearningStyle)
	}
	return nil
}

// Premortem records the user's anticipated failure reasons and derives
// a mitigation per risk. Resubmission replaces the prior risk set.
func (s *commitmentService) Premortem(dbc dbctx.Context, userID uuid.UUID, reasons []string) ([]*types.PremortemRisk, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	cleaned := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: at least one reason is required", pkgerrors.ErrInvalidArgument)
	}

	commitment, err := s.commitments.GetActiveByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load commitment: %w", err)
	}
	if commitment == nil {
		return nil, fmt.Errorf("%w: no active commitment", pkgerrors.ErrNotFound)
	}

	mitigations := s.mitigations(dbc, commitment, cleaned)

	rows := make([]*types.PremortemRisk, 0, len(cleaned))
	for i, reason := range cleaned {
		rows = append(rows, &types.PremortemRisk{
			CommitmentID: commitment.ID,
			Risk:         reason,
			Mitigation:   mitigations[i],
			Priority:     i + 1,
		})
	}

	reasonsJSON, _ := json.Marshal(cleaned)
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		if err := s.risks.ReplaceForCommitment(inner, commitment.ID, rows); err != nil {
			return fmt.Errorf("replace risks: %w", err)
		}
		if err := s.commitments.UpdateFields(inner, commitment.ID, map[string]interface{}{
			"premortem_reasons": datatypes.JSON(reasonsJSON),
		}); err != nil {
			return fmt.Errorf("store reasons: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mitigations asks the reasoning model for one mitigation per risk.
// On any failure it falls back to a generic mitigation so premortem
// never blocks on the model being up.
func (s *commitmentService) mitigations(dbc dbctx.Context, commitment *types.Commitment, reasons []string) []string {
	out := make([]string, len(reasons))
	for i := range out {
		out[i] = "Plan a smaller daily commitment for the week this risk shows up."
	}
	if s.ai == nil {
		return out
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mitigations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []string{"mitigations"},
		"additionalProperties": false,
	}
	user := fmt.Sprintf(
		"Goal: %s\nWeekly hours: %d\nRisks, one per line:\n%s\n\nReturn one concrete mitigation per risk, in order.",
		commitment.Goal, commitment.WeeklyHours, strings.Join(reasons, "\n"),
	)
	resp, err := s.ai.GenerateJSON(dbc.Ctx,
		"You are a study coach. For each anticipated failure reason, propose one short, actionable mitigation.",
		user, "premortem_mitigations", schema)
	if err != nil {
		s.log.Warn("Premortem mitigation generation failed; using fallback", "commitment_id", commitment.ID, "error", err)
		return out
	}
	items, _ := resp["mitigations"].([]any)
	for i := range out {
		if i < len(items) {
			if m, ok := items[i].(string); ok && strings.TrimSpace(m) != "" {
				out[i] = strings.TrimSpace(m)
			}
		}
	}
	return out
}

func (s *commitmentService) GetCurrent(dbc dbctx.Context, userID uuid.UUID) (*types.Commitment, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
	}
	return s.commitments.GetActiveByUser(dbc, userID)
}

func (s *commitmentService) ListRisks(dbc dbctx.Context, userID uuid.UUID) ([]*types.PremortemRisk, error) {
	commitment, err := s.commitments.GetActiveByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	if commitment == nil {
		return nil, nil
	}
	return s.risks.ListByCommitment(dbc, commitment.ID)
}

func planIdempotencyKey(commitmentID uuid.UUID, weekIndex int) string {
	return fmt.Sprintf("plan:%s:week:%d", commitmentID, weekIndex)
}

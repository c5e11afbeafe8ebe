package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/studypact-backend/internal/pkg/errors"
	"github.com/yungbote/studypact-backend/internal/types"
)

func newTestCommitmentService(t *testing.T, commitments *fakeCommitmentRepo, risks *fakeRiskRepo, ai *fakeAI) *commitmentService {
	t.Helper()
	svc := NewCommitmentService(nil, testLogger(t), commitments, risks, nil, &fakeJobService{})
	cs := svc.(*commitmentService)
	if ai != nil {
		cs.ai = ai
	}
	return cs
}

func TestValidateIntake(t *testing.T) {
	future := time.Now().AddDate(0, 2, 0)
	cases := []struct {
		name    string
		in      IntakeInput
		wantErr bool
	}{
		{"valid", IntakeInput{Goal: "learn sql", TargetDate: future, WeeklyHours: 5, BaselineLevel: types.BaselineBeginner, LearningStyle: types.LearningStyleMixed}, false},
		{"defaults fill baseline and style", IntakeInput{Goal: "learn sql", TargetDate: future, WeeklyHours: 5}, false},
		{"empty goal", IntakeInput{TargetDate: future, WeeklyHours: 5}, true},
		{"past target date", IntakeInput{Goal: "learn sql", TargetDate: time.Now().AddDate(0, 0, -1), WeeklyHours: 5}, true},
		{"zero hours", IntakeInput{Goal: "learn sql", TargetDate: future, WeeklyHours: 0}, true},
		{"too many hours", IntakeInput{Goal: "learn sql", TargetDate: future, WeeklyHours: 41}, true},
		{"unknown baseline", IntakeInput{Goal: "learn sql", TargetDate: future, WeeklyHours: 5, BaselineLevel: "wizard"}, true},
		{"unknown style", IntakeInput{Goal: "learn sql", TargetDate: future, WeeklyHours: 5, LearningStyle: "osmosis"}, true},
	}
	for _, tc := range cases {
		err := validateIntake(&tc.in)
		if tc.wantErr {
			if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
				t.Fatalf("%s: expected ErrInvalidArgument, got %v", tc.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if tc.in.BaselineLevel == "" || tc.in.LearningStyle == "" {
			t.Fatalf("%s: defaults not applied: %+v", tc.name, tc.in)
		}
	}
}

func TestPremortemRequiresReasonsAndCommitment(t *testing.T) {
	svc := newTestCommitmentService(t, &fakeCommitmentRepo{}, &fakeRiskRepo{}, nil)

	if _, err := svc.Premortem(dbcNoTx(), uuid.New(), []string{"  ", ""}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for blank reasons, got %v", err)
	}
	if _, err := svc.Premortem(dbcNoTx(), uuid.New(), []string{"no time"}); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound without commitment, got %v", err)
	}
}

func TestMitigationsFallBackWhenModelFails(t *testing.T) {
	ai := &fakeAI{generateJSON: func(string) (map[string]any, error) { return nil, errors.New("down") }}
	svc := newTestCommitmentService(t, &fakeCommitmentRepo{}, &fakeRiskRepo{}, ai)

	out := svc.mitigations(dbcNoTx(), testCommitment(5), []string{"no time", "too hard"})
	if len(out) != 2 {
		t.Fatalf("mitigations = %d, want 2", len(out))
	}
	for i, m := range out {
		if m == "" {
			t.Fatalf("mitigation %d empty", i)
		}
	}
}

func TestMitigationsUseModelOutputInOrder(t *testing.T) {
	ai := &fakeAI{generateJSON: func(string) (map[string]any, error) {
		return map[string]any{"mitigations": []any{"block mornings", "pair with a friend"}}, nil
	}}
	svc := newTestCommitmentService(t, &fakeCommitmentRepo{}, &fakeRiskRepo{}, ai)

	out := svc.mitigations(dbcNoTx(), testCommitment(5), []string{"no time", "loses motivation"})
	if out[0] != "block mornings" || out[1] != "pair with a friend" {
		t.Fatalf("mitigations = %v", out)
	}
}

func TestPlanIdempotencyKeyShape(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	got := planIdempotencyKey(id, 3)
	want := "plan:11111111-2222-3333-4444-555555555555:week:3"
	if got != want {
		t.Fatalf("key = %q, want %q", got, want)
	}
}

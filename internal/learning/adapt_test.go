package learning

import (
	"reflect"
	"testing"

	"github.com/yungbote/studypact-backend/internal/types"
)

func TestDetermineAdjustment(t *testing.T) {
	cases := []struct {
		name string
		sig  types.Signals
		want string
	}{
		{"very low adherence reduces scope", types.Signals{Adherence: 0.2, Knowledge: 0.9, Retention: 0.9}, types.AdjustReduceScope},
		{"low retention repeats concepts", types.Signals{Adherence: 0.7, Knowledge: 0.7, Retention: 0.4}, types.AdjustRepeatConcepts},
		{"strong on all fronts increases challenge", types.Signals{Adherence: 0.9, Knowledge: 0.9, Retention: 0.9}, types.AdjustIncreaseChallenge},
		{"middling signals keep the plan", types.Signals{Adherence: 0.6, Knowledge: 0.6, Retention: 0.6}, types.AdjustKeep},
		{"adherence rule wins over retention rule", types.Signals{Adherence: 0.1, Knowledge: 0.1, Retention: 0.1}, types.AdjustReduceScope},
		{"retention rule wins over challenge rule", types.Signals{Adherence: 0.9, Knowledge: 0.9, Retention: 0.3}, types.AdjustRepeatConcepts},
		{"knowledge at threshold does not increase challenge", types.Signals{Adherence: 0.9, Knowledge: 0.8, Retention: 0.9}, types.AdjustKeep},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetermineAdjustment(tc.sig); got != tc.want {
				t.Fatalf("DetermineAdjustment(%+v) = %q, want %q", tc.sig, got, tc.want)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	t.Run("caps mitigations at three", func(t *testing.T) {
		sig := types.Signals{Adherence: 0.7, Knowledge: 0.7, Retention: 0.7, Status: types.StatusActive}
		got := Decide(sig, []string{"a", "b", "c", "d", "e"})
		if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got.RiskMitigation, want) {
			t.Fatalf("mitigations = %v, want %v", got.RiskMitigation, want)
		}
	})
	t.Run("at_risk appends check_in_reminder", func(t *testing.T) {
		sig := types.Signals{Adherence: 0.1, Status: types.StatusAtRisk}
		got := Decide(sig, []string{"pair with a friend"})
		want := []string{"pair with a friend", "check_in_reminder"}
		if !reflect.DeepEqual(got.RiskMitigation, want) {
			t.Fatalf("mitigations = %v, want %v", got.RiskMitigation, want)
		}
		if got.PlanAdjustment != types.AdjustReduceScope {
			t.Fatalf("adjustment = %q, want %q", got.PlanAdjustment, types.AdjustReduceScope)
		}
	})
	t.Run("reminder counts toward the cap", func(t *testing.T) {
		sig := types.Signals{Adherence: 0.1, Status: types.StatusAtRisk}
		got := Decide(sig, []string{"a", "b", "c", "d"})
		want := []string{"a", "b", "check_in_reminder"}
		if !reflect.DeepEqual(got.RiskMitigation, want) {
			t.Fatalf("mitigations = %v, want %v", got.RiskMitigation, want)
		}
	})
	t.Run("blank mitigations skipped", func(t *testing.T) {
		sig := types.Signals{Adherence: 0.7, Retention: 0.7, Knowledge: 0.7, Status: types.StatusActive}
		got := Decide(sig, []string{"", "stick to mornings"})
		if want := []string{"stick to mornings"}; !reflect.DeepEqual(got.RiskMitigation, want) {
			t.Fatalf("mitigations = %v, want %v", got.RiskMitigation, want)
		}
	})
	t.Run("no mitigations yields empty slice not nil", func(t *testing.T) {
		sig := types.Signals{Adherence: 0.7, Retention: 0.7, Knowledge: 0.7, Status: types.StatusActive}
		got := Decide(sig, nil)
		if got.RiskMitigation == nil || len(got.RiskMitigation) != 0 {
			t.Fatalf("mitigations = %#v, want empty slice", got.RiskMitigation)
		}
	})
}

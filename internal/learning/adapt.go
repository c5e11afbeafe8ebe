package learning

import "github.com/yungbote/studypact-backend/internal/types"

const maxRiskMitigations = 3

// DetermineAdjustment picks one plan adjustment from the signals.
// Rules are ordered: struggling to show up beats everything else, then
// forgetting, then coasting.
func DetermineAdjustment(s types.Signals) string {
	switch {
	case s.Adherence < 0.3:
		return types.AdjustReduceScope
	case s.Retention < 0.5:
		return types.AdjustRepeatConcepts
	case s.Knowledge > 0.8 && s.Adherence > 0.8:
		return types.AdjustIncreaseChallenge
	default:
		return types.AdjustKeep
	}
}

// Decide assembles the adaptation action. Mitigations come from the
// user's own premortem (already priority-ordered); when the user is at
// risk a check-in reminder takes one of the capped slots.
func Decide(s types.Signals, mitigations []string) types.Action {
	limit := maxRiskMitigations
	if s.Status == types.StatusAtRisk {
		limit--
	}
	out := make([]string, 0, maxRiskMitigations)
	for _, m := range mitigations {
		if len(out) == limit {
			break
		}
		if m == "" {
			continue
		}
		out = append(out, m)
	}
	if s.Status == types.StatusAtRisk {
		out = append(out, "check_in_reminder")
	}
	return types.Action{
		PlanAdjustment: DetermineAdjustment(s),
		RiskMitigation: out,
	}
}

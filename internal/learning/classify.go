package learning

import "github.com/yungbote/studypact-backend/internal/types"

// Classification thresholds. at_risk trips on poor adherence alone, or
// on the combination of weak knowledge and weak retention.
const (
	adherenceRiskFloor = 0.4
	knowledgeRiskFloor = 0.3
	retentionRiskFloor = 0.3
)

// ClassifyStatus maps the current signals and the previous status to a
// user status. A previously at-risk user whose adherence recovered is
// held in recovering for one cycle instead of jumping straight back to
// active.
func ClassifyStatus(s types.Signals, prevStatus string) string {
	if s.Adherence < adherenceRiskFloor ||
		(s.Knowledge < knowledgeRiskFloor && s.Retention < retentionRiskFloor) {
		return types.StatusAtRisk
	}
	if prevStatus == types.StatusAtRisk {
		return types.StatusRecovering
	}
	return types.StatusActive
}

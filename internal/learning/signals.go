package learning

import (
	"math"
	"time"
)

const (
	// NeutralScore is returned when there is no evidence either way.
	NeutralScore = 0.5

	// knowledgeDecay is the per-step weight decay applied to older
	// grade scores, newest first. Kept below 0.5 so the newest grade
	// always outweighs the rest of the window combined.
	knowledgeDecay = 0.4

	// DefaultHalfLifeDays controls how fast retention decays without
	// review.
	DefaultHalfLifeDays = 7.0
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Adherence is completed minutes over scheduled minutes for the
// current week. Zero scheduled minutes is not evidence of neglect, so
// it scores neutral rather than zero.
func Adherence(completedMin, scheduledMin int) float64 {
	if scheduledMin <= 0 {
		return NeutralScore
	}
	return clamp01(float64(completedMin) / float64(scheduledMin))
}

// Knowledge is an exponentially weighted average of grade scores,
// ordered newest first. With no grades it scores neutral.
func Knowledge(scoresNewestFirst []float64) float64 {
	if len(scoresNewestFirst) == 0 {
		return NeutralScore
	}
	var sum, wsum float64
	w := 1.0
	for _, s := range scoresNewestFirst {
		sum += w * clamp01(s)
		wsum += w
		w *= knowledgeDecay
	}
	return clamp01(sum / wsum)
}

// Retention models forgetting as exponential decay from the last
// review: halves every halfLifeDays. A nil last review scores zero.
func Retention(lastReview *time.Time, now time.Time, halfLifeDays float64) float64 {
	if lastReview == nil {
		return 0
	}
	if halfLifeDays <= 0 {
		halfLifeDays = DefaultHalfLifeDays
	}
	days := now.Sub(*lastReview).Hours() / 24
	if days <= 0 {
		return 1
	}
	return clamp01(math.Exp2(-days / halfLifeDays))
}

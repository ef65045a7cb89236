package services

import "time"

// estimateCeiling is the elapsed time at which the display estimate saturates.
const estimateCeiling = 25 * time.Minute

// EstimateProgress maps elapsed wall-clock time to a display percentage,
// capped at 95 so the bar never claims completion. Display heuristic only;
// the authoritative progress comes from the workflow's sub-step plan.
func EstimateProgress(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	estimate := float64(elapsed) / float64(estimateCeiling) * 100
	if estimate > 95 {
		return 95
	}
	return estimate
}

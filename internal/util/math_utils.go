package util

import "math"

// RoundPercent returns part/total as a whole percentage, rounded half away
// from zero. Returns 0 when total is 0.
func RoundPercent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RoundAverage returns sum/count rounded to the nearest integer.
// Returns 0 when count is 0.
func RoundAverage(sum, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(count)))
}

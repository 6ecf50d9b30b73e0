package ledger

import (
	"math"

	"engagebot/models"
)

// Normalize converts an arbitrary number into a storable score.
// NaN becomes 0, values are truncated toward zero and then clamped to the safe integer range.
func Normalize(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= float64(models.MaxSafeInteger):
		return models.MaxSafeInteger
	case v <= float64(models.MinSafeInteger):
		return models.MinSafeInteger
	}
	return int64(math.Trunc(v))
}

// Clamp bounds an integer score to the safe integer range
func Clamp(v int64) int64 {
	if v > models.MaxSafeInteger {
		return models.MaxSafeInteger
	}
	if v < models.MinSafeInteger {
		return models.MinSafeInteger
	}
	return v
}

// add sums two clamped scores without overflowing int64
func add(a, b int64) int64 {
	return Clamp(Clamp(a) + Clamp(b))
}

package scoring

import "math"

const (
	MinMatchScore = 0.5
	MaxMatchScore = 0.99
)

// Normalize maps a raw aggregate score to a match score in [0.5, 0.99].
// It is non-decreasing in raw.
func Normalize(raw float64) float64 {
	score := MinMatchScore + 0.1*math.Log(math.Max(raw, 0)+1)
	score = math.Min(score, MaxMatchScore)
	return math.Round(score*100) / 100
}

package quiz

import (
	"math"

	"github.com/math-quiz/internal/domain"
)

// Grade returns the trophy shown for a score
func Grade(score int) string {
	switch {
	case score >= 90:
		return "🏆"
	case score >= 70:
		return "🥇"
	case score >= 50:
		return "🥈"
	default:
		return "🥉"
	}
}

// Accuracy returns score as a whole percentage of the maximum
func Accuracy(score int) int {
	return int(math.Round(float64(score) / float64(domain.MaxScore) * 100))
}

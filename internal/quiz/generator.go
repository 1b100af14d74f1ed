package quiz

import (
	"fmt"
	"slices"

	"github.com/math-quiz/internal/domain"
)

// Operators
const (
	OpAdd      = "+"
	OpSubtract = "-"
	OpMultiply = "×"
)

const optionCount = 4

// Rand is the random source used by the generator. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// operandRange is the inclusive range operands are drawn from
type operandRange struct {
	min, max int
}

var levelRanges = map[int]operandRange{
	1: {1, 10},
	2: {5, 20},
	3: {2, 9},
}

// Generate produces one question for the given level (1-3)
func Generate(level int, rng Rand) (domain.Question, error) {
	r, ok := levelRanges[level]
	if !ok {
		return domain.Question{}, fmt.Errorf("level %d: %w", level, domain.ErrInvalidLevel)
	}

	left := r.min + rng.IntN(r.max-r.min+1)
	right := r.min + rng.IntN(r.max-r.min+1)

	var op string
	var answer int
	switch {
	case level == 3:
		op = OpMultiply
		answer = left * right
	case rng.IntN(2) == 0:
		op = OpAdd
		answer = left + right
	default:
		op = OpSubtract
		if left < right {
			left, right = right, left
		}
		answer = left - right
	}

	return domain.Question{
		Text:          fmt.Sprintf("%d %s %d = ?", left, op, right),
		Options:       buildOptions(answer, rng),
		CorrectAnswer: answer,
		Level:         level,
		Left:          left,
		Right:         right,
		Operator:      op,
	}, nil
}

// GenerateRound produces n questions for one game
func GenerateRound(level, n int, rng Rand) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, n)
	for range n {
		q, err := Generate(level, rng)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// buildOptions returns the answer plus three distinct positive distractors
// within [-5,+4] of it, shuffled.
func buildOptions(answer int, rng Rand) []int {
	options := make([]int, 1, optionCount)
	options[0] = answer
	for len(options) < optionCount {
		candidate := answer + rng.IntN(10) - 5
		if candidate > 0 && !slices.Contains(options, candidate) {
			options = append(options, candidate)
		}
	}
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

// Check reports whether answer is correct for q
func Check(q domain.Question, answer int) bool {
	return q.CorrectAnswer == answer
}

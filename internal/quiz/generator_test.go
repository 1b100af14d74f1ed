package quiz

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/math-quiz/internal/domain"
)

func TestGenerateProperties(t *testing.T) {
	for level := 1; level <= 3; level++ {
		r := levelRanges[level]
		for seed := uint64(0); seed < 500; seed++ {
			rng := rand.New(rand.NewPCG(seed, uint64(level)))
			q, err := Generate(level, rng)
			require.NoError(t, err)

			require.Len(t, q.Options, 4)
			seen := map[int]bool{}
			for _, opt := range q.Options {
				assert.False(t, seen[opt], "duplicate option %d in %v", opt, q.Options)
				seen[opt] = true
				if opt != q.CorrectAnswer {
					assert.Greater(t, opt, 0, "distractor must be positive: %v", q.Options)
					assert.InDelta(t, q.CorrectAnswer, opt, 5)
				}
			}
			assert.True(t, seen[q.CorrectAnswer], "options %v miss answer %d", q.Options, q.CorrectAnswer)
			assert.GreaterOrEqual(t, q.CorrectAnswer, 0)

			assert.GreaterOrEqual(t, q.Left, r.min)
			assert.LessOrEqual(t, q.Left, r.max)
			assert.GreaterOrEqual(t, q.Right, r.min)
			assert.LessOrEqual(t, q.Right, r.max)

			switch q.Operator {
			case OpAdd:
				assert.NotEqual(t, 3, level)
				assert.Equal(t, q.Left+q.Right, q.CorrectAnswer)
			case OpSubtract:
				assert.NotEqual(t, 3, level)
				assert.GreaterOrEqual(t, q.Left, q.Right)
				assert.Equal(t, q.Left-q.Right, q.CorrectAnswer)
			case OpMultiply:
				assert.Equal(t, 3, level)
				assert.Equal(t, q.Left*q.Right, q.CorrectAnswer)
			default:
				t.Fatalf("unexpected operator %q", q.Operator)
			}
			assert.True(t, strings.HasSuffix(q.Text, " = ?"))
			assert.Contains(t, q.Text, q.Operator)
		}
	}
}

func TestGenerateBothOperatorsAppear(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	ops := map[string]int{}
	for range 200 {
		q, err := Generate(1, rng)
		require.NoError(t, err)
		ops[q.Operator]++
	}
	assert.Positive(t, ops[OpAdd])
	assert.Positive(t, ops[OpSubtract])
	assert.Zero(t, ops[OpMultiply])
}

func TestGenerateInvalidLevel(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, level := range []int{0, 4, -1} {
		_, err := Generate(level, rng)
		assert.ErrorIs(t, err, domain.ErrInvalidLevel)
	}
}

func TestGenerateRound(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	questions, err := GenerateRound(2, domain.QuestionsPerGame, rng)
	require.NoError(t, err)
	assert.Len(t, questions, 10)
	for _, q := range questions {
		assert.Equal(t, 2, q.Level)
	}

	_, err = GenerateRound(9, 3, rng)
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)
}

func TestBuildOptionsZeroAnswer(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	opts := buildOptions(0, rng)
	require.Len(t, opts, 4)
	assert.Contains(t, opts, 0)
	for _, o := range opts {
		if o != 0 {
			assert.True(t, o >= 1 && o <= 4, "distractor %d out of range", o)
		}
	}
}

func TestCheck(t *testing.T) {
	q := domain.Question{CorrectAnswer: 12}
	assert.True(t, Check(q, 12))
	assert.False(t, Check(q, 11))
}

func TestGrade(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, "🏆"},
		{95, "🏆"},
		{90, "🏆"},
		{89, "🥇"},
		{75, "🥇"},
		{70, "🥇"},
		{69, "🥈"},
		{55, "🥈"},
		{50, "🥈"},
		{49, "🥉"},
		{30, "🥉"},
		{0, "🥉"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Grade(tt.score), "score %d", tt.score)
	}
}

func TestAccuracy(t *testing.T) {
	assert.Equal(t, 80, Accuracy(80))
	assert.Equal(t, 100, Accuracy(100))
	assert.Equal(t, 0, Accuracy(0))
}

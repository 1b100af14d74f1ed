package rewards

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand returns scripted values so both bonus branches can be forced
type fixedRand struct {
	float float64
	index int
}

func (r fixedRand) Float64() float64 { return r.float }
func (r fixedRand) IntN(n int) int   { return r.index % n }

var (
	noBonus     = fixedRand{float: 0.99}
	alwaysBonus = fixedRand{float: 0.0}
)

func TestCheckRewardsLevelAndStreak(t *testing.T) {
	e := NewEngine(noBonus, 0)
	got := e.CheckRewards(80, 5, 1, nil)
	assert.Contains(t, got, "fan1")
	assert.Contains(t, got, "mini_fan")
	assert.Equal(t, []string{"fan1", "mini_fan"}, got)
}

func TestCheckRewardsPerfect(t *testing.T) {
	e := NewEngine(noBonus, 0)

	got := e.CheckRewards(100, 10, 1, nil)
	assert.Contains(t, got, "fan4")
	assert.NotContains(t, got, "coffee")
	// fan1 + fan4 + mini_fan reaches fan mastery in the same call
	assert.Equal(t, []string{"fan1", "fan4", "mini_fan", "industrial_fan"}, got)

	got = e.CheckRewards(100, 0, 2, nil)
	assert.Equal(t, []string{"fan2", "fan4", "coffee"}, got)
}

func TestCheckRewardsFanMastery(t *testing.T) {
	e := NewEngine(noBonus, 0)
	got := e.CheckRewards(90, 3, 2, []string{"fan1", "fan2", "fan3"})
	assert.Equal(t, []string{"industrial_fan"}, got)
}

func TestCheckRewardsKitchenMastery(t *testing.T) {
	e := NewEngine(noBonus, 0)
	got := e.CheckRewards(100, 0, 3, []string{"blender", "toaster", "fan3", "fan4"})
	assert.Contains(t, got, "coffee")
	assert.Contains(t, got, "rice_cooker")
}

func TestCheckRewardsBothMasteriesInOneCall(t *testing.T) {
	e := NewEngine(noBonus, 0)
	owned := []string{"fan1", "fan2", "blender", "toaster"}
	got := e.CheckRewards(100, 0, 3, owned)
	assert.Equal(t, []string{"fan3", "fan4", "coffee", "industrial_fan", "rice_cooker"}, got)
}

func TestCheckRewardsBelowThreshold(t *testing.T) {
	e := NewEngine(alwaysBonus, 0)
	assert.Empty(t, e.CheckRewards(70, 4, 1, nil))
}

func TestCheckRewardsBonus(t *testing.T) {
	e := NewEngine(alwaysBonus, 0)
	got := e.CheckRewards(90, 0, 1, []string{"fan1"})
	assert.Equal(t, []string{"blender"}, got)

	e = NewEngine(fixedRand{float: 0.0, index: 2}, 0)
	got = e.CheckRewards(90, 0, 1, []string{"fan1", "toaster"})
	// available pool: blender, vacuum_cleaner, heater, smart_light
	assert.Equal(t, []string{"heater"}, got)

	e = NewEngine(fixedRand{float: 0.3}, 0)
	assert.Empty(t, e.CheckRewards(90, 0, 1, []string{"fan1"}), "0.3 is not below the bonus chance")
}

func TestCheckRewardsBonusPoolExhausted(t *testing.T) {
	e := NewEngine(alwaysBonus, 0)
	owned := []string{"fan1", "blender", "toaster", "vacuum_cleaner", "heater", "smart_light", "rice_cooker"}
	assert.Empty(t, e.CheckRewards(90, 0, 1, owned))
}

func TestCheckRewardsNeverRegrants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	e := NewEngine(rng, 0)
	for score := 0; score <= 100; score += 10 {
		for streak := 0; streak <= 10; streak++ {
			for level := 1; level <= 3; level++ {
				owned := []string{"fan1", "coffee", "blender"}
				got := e.CheckRewards(score, streak, level, owned)
				seen := map[string]bool{}
				for _, id := range got {
					assert.NotContains(t, owned, id)
					assert.False(t, seen[id], "duplicate %s", id)
					seen[id] = true
				}
			}
		}
	}
}

func TestCheckRewardsIdempotent(t *testing.T) {
	e := NewEngine(noBonus, 0)
	for score := 0; score <= 100; score += 10 {
		for streak := 0; streak <= 10; streak++ {
			for level := 1; level <= 3; level++ {
				owned := []string{"toaster"}
				first := e.CheckRewards(score, streak, level, owned)
				again := e.CheckRewards(score, streak, level, append(owned, first...))
				require.Empty(t, again, "score=%d streak=%d level=%d", score, streak, level)
			}
		}
	}
}

func TestNewEngineBonusChanceDefault(t *testing.T) {
	assert.Equal(t, DefaultBonusChance, NewEngine(noBonus, 0).bonusChance)
	assert.Equal(t, DefaultBonusChance, NewEngine(noBonus, 1.5).bonusChance)
	assert.Equal(t, 0.5, NewEngine(noBonus, 0.5).bonusChance)
}

func TestUnlockReason(t *testing.T) {
	tests := []struct {
		score, streak, level int
		want                 string
	}{
		{100, 10, 3, "perfect_score"},
		{90, 10, 1, "excellent_score"},
		{80, 8, 2, "streak_master"},
		{80, 5, 2, "streak_bonus"},
		{80, 4, 2, "level_2_completion"},
		{30, 0, 3, "level_3_completion"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnlockReason(tt.score, tt.streak, tt.level))
	}
}

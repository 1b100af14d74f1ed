// Package rewards decides which collectible items a finished game earns.
// It only proposes grants; persisting them is the caller's job.
package rewards

import (
	"fmt"
	"slices"
)

// Item ids the rules refer to
const (
	ItemIndustrialFan = "industrial_fan"
	ItemRiceCooker    = "rice_cooker"
	ItemPerfectFan    = "fan4"
	ItemCoffee        = "coffee"
	ItemStreakFan     = "mini_fan"
)

// Thresholds
const (
	LevelCompletionScore = 80
	PerfectScore         = 100
	ExcellentScore       = 90
	BonusScore           = 90
	StreakBonus          = 5
	StreakMaster         = 8
	MasteryCount         = 3
	DefaultBonusChance   = 0.3
)

var (
	levelFans = map[int]string{1: "fan1", 2: "fan2", 3: "fan3"}

	fanSet     = []string{"fan1", "fan2", "fan3", "fan4", "mini_fan"}
	kitchenSet = []string{"blender", "coffee", "toaster", "microwave"}
	bonusPool  = []string{"blender", "toaster", "vacuum_cleaner", "heater", "smart_light"}
)

// Rand is the random source for the bonus draw. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Engine evaluates the reward rules
type Engine struct {
	rng         Rand
	bonusChance float64
}

// NewEngine creates a reward engine. bonusChance is the probability of the
// high-score bonus draw; values outside (0,1] fall back to the default.
func NewEngine(rng Rand, bonusChance float64) *Engine {
	if bonusChance <= 0 || bonusChance > 1 {
		bonusChance = DefaultBonusChance
	}
	return &Engine{rng: rng, bonusChance: bonusChance}
}

// grants accumulates new item ids, skipping owned and already queued ones
type grants struct {
	owned map[string]bool
	items []string
}

func (g *grants) add(id string) {
	if g.owned[id] || slices.Contains(g.items, id) {
		return
	}
	g.items = append(g.items, id)
}

func (g *grants) has(id string) bool {
	return g.owned[id] || slices.Contains(g.items, id)
}

func (g *grants) countIn(set []string) int {
	n := 0
	for _, id := range set {
		if g.has(id) {
			n++
		}
	}
	return n
}

// CheckRewards returns the item ids newly earned by a game. Items in owned
// are never returned. Both category mastery rules are evaluated
// independently, so one call may grant both mastery items.
func (e *Engine) CheckRewards(score, maxStreak, level int, owned []string) []string {
	g := &grants{owned: make(map[string]bool, len(owned))}
	for _, id := range owned {
		g.owned[id] = true
	}

	if score >= LevelCompletionScore {
		if fan, ok := levelFans[level]; ok {
			g.add(fan)
		}
	}

	if score == PerfectScore {
		g.add(ItemPerfectFan)
		if level >= 2 {
			g.add(ItemCoffee)
		}
	}

	if maxStreak >= StreakBonus {
		g.add(ItemStreakFan)
	}

	if g.countIn(fanSet) >= MasteryCount {
		g.add(ItemIndustrialFan)
	}
	if g.countIn(kitchenSet) >= MasteryCount {
		g.add(ItemRiceCooker)
	}

	if score >= BonusScore && e.rng.Float64() < e.bonusChance {
		var available []string
		for _, id := range bonusPool {
			if !g.has(id) {
				available = append(available, id)
			}
		}
		if len(available) > 0 {
			g.add(available[e.rng.IntN(len(available))])
		}
	}

	return g.items
}

// UnlockReason names why items from a game were granted. The first
// matching rule wins.
func UnlockReason(score, maxStreak, level int) string {
	switch {
	case score == PerfectScore:
		return "perfect_score"
	case score >= ExcellentScore:
		return "excellent_score"
	case maxStreak >= StreakMaster:
		return "streak_master"
	case maxStreak >= StreakBonus:
		return "streak_bonus"
	default:
		return fmt.Sprintf("level_%d_completion", level)
	}
}

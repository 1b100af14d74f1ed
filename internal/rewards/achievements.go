package rewards

import (
	"sort"

	"github.com/math-quiz/internal/catalog"
)

// Achievement types
const (
	AchievementFirstPlayer    = "first_player"
	AchievementPerfectScore   = "perfect_score"
	AchievementExcellentScore = "excellent_score"
	AchievementStreakMaster   = "streak_master"
	AchievementLevelComplete  = "level_complete"
	AchievementCollector      = "collector"
	AchievementVeteran        = "veteran_player"
	categoryMasterSuffix      = "_master"
)

// Milestone sizes
const (
	streakAchievementMin = 10
	streakTierSize       = 5
	collectorTierSize    = 10
	categoryTierSize     = 5
	veteranTierSize      = 10
)

// AchievementGrant is a proposed (type, tier) pair
type AchievementGrant struct {
	Type  string
	Level int
}

// AchievementInput is the state the checklist looks at after a game
type AchievementInput struct {
	Score      int
	Level      int
	MaxStreak  int
	TotalGames int
	// OwnedItems is the player's collection including items from this game
	OwnedItems []string
}

// CategoryMasterType returns the achievement type for mastering a category
func CategoryMasterType(category catalog.Category) string {
	return string(category) + categoryMasterSuffix
}

// EvaluateAchievements runs the fixed achievement checklist. Grants for
// tiers the player already holds are filtered out by the store.
func EvaluateAchievements(in AchievementInput, cat *catalog.Catalog) []AchievementGrant {
	var out []AchievementGrant

	if in.Score == PerfectScore {
		out = append(out, AchievementGrant{AchievementPerfectScore, in.Level})
	}
	if in.Score >= ExcellentScore {
		out = append(out, AchievementGrant{AchievementExcellentScore, in.Level})
	}
	if in.MaxStreak >= streakAchievementMin {
		out = append(out, AchievementGrant{AchievementStreakMaster, in.MaxStreak / streakTierSize})
	}

	out = append(out, AchievementGrant{AchievementLevelComplete, in.Level})

	if n := len(in.OwnedItems); n >= collectorTierSize {
		out = append(out, AchievementGrant{AchievementCollector, n / collectorTierSize})
	}

	counts := make(map[catalog.Category]int)
	for _, id := range in.OwnedItems {
		if category := cat.CategoryOf(id); category != "" {
			counts[category]++
		}
	}
	categories := make([]catalog.Category, 0, len(counts))
	for category := range counts {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	for _, category := range categories {
		if n := counts[category]; n >= categoryTierSize {
			out = append(out, AchievementGrant{CategoryMasterType(category), n / categoryTierSize})
		}
	}

	if in.TotalGames >= veteranTierSize {
		out = append(out, AchievementGrant{AchievementVeteran, in.TotalGames / veteranTierSize})
	}

	return out
}

package rewards

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/math-quiz/internal/catalog"
)

func TestEvaluateAchievementsBasic(t *testing.T) {
	got := EvaluateAchievements(AchievementInput{Score: 60, Level: 2, MaxStreak: 3, TotalGames: 1}, catalog.Default())
	assert.Equal(t, []AchievementGrant{{AchievementLevelComplete, 2}}, got)
}

func TestEvaluateAchievementsPerfectGame(t *testing.T) {
	got := EvaluateAchievements(AchievementInput{
		Score:      100,
		Level:      3,
		MaxStreak:  10,
		TotalGames: 20,
		OwnedItems: []string{"fan1", "fan2", "fan3", "fan4", "mini_fan", "industrial_fan", "coffee", "blender", "toaster", "heater"},
	}, catalog.Default())

	assert.Equal(t, []AchievementGrant{
		{AchievementPerfectScore, 3},
		{AchievementExcellentScore, 3},
		{AchievementStreakMaster, 2},
		{AchievementLevelComplete, 3},
		{AchievementCollector, 1},
		{"fan_master", 1},
		{AchievementVeteran, 2},
	}, got)
}

func TestEvaluateAchievementsCategoryTiers(t *testing.T) {
	owned := []string{
		"blender", "coffee", "toaster", "microwave", "rice_cooker",
		"air_fryer", "mixer", "juicer", "electric_kettle", "pressure_cooker",
		"unknown_item",
	}
	got := EvaluateAchievements(AchievementInput{Score: 0, Level: 1, OwnedItems: owned}, catalog.Default())
	assert.Contains(t, got, AchievementGrant{"kitchen_master", 2})
	assert.Contains(t, got, AchievementGrant{AchievementCollector, 1})
}

func TestCategoryMasterType(t *testing.T) {
	assert.Equal(t, "cleaning_master", CategoryMasterType(catalog.CategoryCleaning))
}

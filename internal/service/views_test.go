package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/math-quiz/internal/domain"
	"github.com/math-quiz/internal/kv"
)

func TestGetScoreboardSharedRanks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), fixedRand{float: 0.99})

	for _, c := range []domain.GameCompletion{
		completion("Amy", 1, 100, 10),
		completion("Ben", 1, 80, 2),
		completion("Cat", 1, 80, 2),
		completion("Dan", 1, 50, 2),
	} {
		_, err := svc.CompleteGame(ctx, c)
		require.NoError(t, err)
	}

	board, err := svc.GetScoreboard(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, board, 4)

	ranks := make([]int, 0, len(board))
	for _, e := range board {
		ranks = append(ranks, e.Rank)
	}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)
	assert.Equal(t, "Amy", board[0].PlayerName)
	assert.Equal(t, 4, board[0].ItemCount)
	assert.Equal(t, 1, board[1].ItemCount)
	assert.Equal(t, 0, board[3].ItemCount)

	limited, err := svc.GetScoreboard(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	empty, err := svc.GetScoreboard(ctx, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = svc.GetScoreboard(ctx, 5, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidLevel)
}

func TestGetScoreboardClampsLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), fixedRand{float: 0.99})
	svc.config.MaxLeaderboardLimit = 2

	for i := 0; i < 3; i++ {
		_, err := svc.CompleteGame(ctx, completion("Amy", 1, 60, 1))
		require.NoError(t, err)
	}

	board, err := svc.GetScoreboard(ctx, 0, 100)
	require.NoError(t, err)
	assert.Len(t, board, 2)
}

func TestGetPlayerStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), fixedRand{float: 0.99})

	for _, score := range []int{40, 90, 60, 70, 50, 30} {
		_, err := svc.CompleteGame(ctx, completion("Amy", 1, score, 1))
		require.NoError(t, err)
	}

	stats, err := svc.GetPlayerStats(ctx, "Amy")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, 6, stats.TotalGames)
	assert.Equal(t, 90, stats.BestScore)
	assert.Equal(t, 57, stats.AverageScore)
	assert.Len(t, stats.RecentSessions, 5)
	assert.Equal(t, 30, stats.RecentSessions[0].Score)
	assert.Equal(t, 1, stats.ItemCount)

	unknown, err := svc.GetPlayerStats(ctx, "Nobody")
	require.NoError(t, err)
	assert.Nil(t, unknown)
}

func TestGetCollectionViews(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), fixedRand{float: 0.99})

	_, err := svc.CompleteGame(ctx, completion("Amy", 2, 100, 10))
	require.NoError(t, err)

	items, err := svc.GetCollection(ctx, "Amy")
	require.NoError(t, err)
	assert.Len(t, items, 5)

	progress, err := svc.GetCollectionProgress(ctx, "Amy")
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionProgress{Total: 50, Unlocked: 5, Percentage: 10}, progress)

	byCategory, err := svc.GetCollectionByCategory(ctx, "Amy")
	require.NoError(t, err)
	assert.Len(t, byCategory["fan"], 4)
	assert.Len(t, byCategory["kitchen"], 1)

	none, err := svc.GetCollection(ctx, "Nobody")
	require.NoError(t, err)
	assert.Empty(t, none)

	progress, err = svc.GetCollectionProgress(ctx, "Nobody")
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionProgress{Total: 50}, progress)
}

func TestGlobalAndPopularStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, kv.NewMemoryStore(), fixedRand{float: 0.99})

	stats := svc.GetGlobalStats(ctx)
	assert.Equal(t, "None", stats.MostPopularItem)
	assert.Zero(t, stats.AverageScore)

	_, err := svc.CompleteGame(ctx, completion("Amy", 1, 80, 1))
	require.NoError(t, err)
	_, err = svc.CompleteGame(ctx, completion("Ben", 1, 90, 5))
	require.NoError(t, err)

	stats = svc.GetGlobalStats(ctx)
	assert.Equal(t, 2, stats.TotalPlayers)
	assert.Equal(t, 2, stats.TotalGames)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 85, stats.AverageScore)
	assert.Equal(t, "Desk Fan", stats.MostPopularItem)

	popular := svc.GetPopularItems(ctx, 0)
	require.NotEmpty(t, popular)
	assert.Equal(t, "fan1", popular[0].ItemID)
	assert.Equal(t, 2, popular[0].Count)

	daily := svc.GetDailyStats(ctx, 0)
	require.Len(t, daily, 1)
	assert.Equal(t, 2, daily[0].TotalGames)
	assert.Equal(t, 2, daily[0].TotalPlayers)
}

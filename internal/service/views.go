package service

import (
	"context"
	"errors"

	"github.com/math-quiz/internal/domain"
	"github.com/math-quiz/internal/progress"
)

// GetScoreboard returns the best sessions, ranked. Equal scores share a
// rank and the next distinct score resumes at its position.
func (s *GameService) GetScoreboard(ctx context.Context, level, limit int) ([]domain.ScoreboardEntry, error) {
	if level != 0 && (level < domain.MinLevel || level > domain.MaxLevel) {
		return nil, domain.ErrInvalidLevel
	}
	if limit <= 0 {
		limit = s.config.DefaultLeaderboardLimit
	}
	if limit > s.config.MaxLeaderboardLimit {
		limit = s.config.MaxLeaderboardLimit
	}

	top := s.store.TopScores(ctx, level, limit)
	itemCounts := make(map[string]int)
	entries := make([]domain.ScoreboardEntry, 0, len(top))

	rank := 0
	lastScore := -1
	for i, e := range top {
		if e.Score != lastScore {
			rank = i + 1
			lastScore = e.Score
		}

		count, ok := itemCounts[e.PlayerID]
		if !ok {
			count = len(s.store.PlayerCollection(ctx, e.PlayerID))
			itemCounts[e.PlayerID] = count
		}

		entries = append(entries, domain.ScoreboardEntry{
			Rank:       rank,
			PlayerName: e.PlayerName,
			Score:      e.Score,
			Level:      e.Level,
			PlayedAt:   e.PlayedAt,
			ItemCount:  count,
		})
	}
	return entries, nil
}

// GetPlayerStats summarises a player. It returns nil for unknown names.
func (s *GameService) GetPlayerStats(ctx context.Context, name string) (*domain.PlayerStats, error) {
	player, err := s.lookup(ctx, name)
	if player == nil {
		return nil, err
	}

	sessions := s.store.PlayerSessions(ctx, player.ID, 0)
	stats := &domain.PlayerStats{
		Player:       *player,
		TotalGames:   len(sessions),
		ItemCount:    len(s.store.PlayerCollection(ctx, player.ID)),
		Achievements: s.store.PlayerAchievements(ctx, player.ID),
	}

	total := 0
	for _, sess := range sessions {
		total += sess.Score
		stats.BestScore = max(stats.BestScore, sess.Score)
	}
	stats.AverageScore = roundDiv(total, len(sessions))

	if len(sessions) > recentSessionCount {
		sessions = sessions[:recentSessionCount]
	}
	stats.RecentSessions = sessions

	return stats, nil
}

// GetCollection returns a player's items, most recent first. Unknown names
// have an empty collection.
func (s *GameService) GetCollection(ctx context.Context, name string) ([]domain.UnlockedItem, error) {
	player, err := s.lookup(ctx, name)
	if player == nil {
		return []domain.UnlockedItem{}, err
	}
	return s.store.PlayerCollection(ctx, player.ID), nil
}

// GetCollectionProgress reports catalog completeness for a player
func (s *GameService) GetCollectionProgress(ctx context.Context, name string) (domain.CollectionProgress, error) {
	player, err := s.lookup(ctx, name)
	if player == nil {
		return progress.NewCollectionProgress(0, s.catalog.Size()), err
	}
	return s.store.CollectionProgress(ctx, player.ID), nil
}

// GetCollectionByCategory groups a player's items by catalog category
func (s *GameService) GetCollectionByCategory(ctx context.Context, name string) (map[string][]domain.UnlockedItem, error) {
	items, err := s.GetCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]domain.UnlockedItem)
	for _, it := range items {
		category := s.catalog.CategoryOf(it.ItemID)
		if category == "" {
			continue
		}
		out[string(category)] = append(out[string(category)], it)
	}
	return out, nil
}

// GetPopularItems returns the items owned by the most players
func (s *GameService) GetPopularItems(ctx context.Context, limit int) []domain.ItemCount {
	if limit <= 0 {
		limit = defaultPopularItems
	}
	return s.store.MostCollectedItems(ctx, limit)
}

// GetGlobalStats summarises all stored progress
func (s *GameService) GetGlobalStats(ctx context.Context) domain.GlobalStats {
	players := s.store.ListPlayers(ctx)

	stats := domain.GlobalStats{
		TotalPlayers:    len(players),
		TotalItems:      s.store.CountItems(ctx),
		MostPopularItem: "None",
	}
	totalScore := 0
	for _, p := range players {
		stats.TotalGames += p.TotalGames
		totalScore += p.TotalScore
	}
	stats.AverageScore = roundDiv(totalScore, stats.TotalGames)

	if top := s.store.MostCollectedItems(ctx, 1); len(top) > 0 && top[0].Name != "" {
		stats.MostPopularItem = top[0].Name
	}
	return stats
}

// GetDailyStats returns per-day summaries, newest first
func (s *GameService) GetDailyStats(ctx context.Context, days int) []domain.DailyStats {
	if days <= 0 {
		days = defaultDailyDays
	}
	return s.store.DailyStats(ctx, days)
}

// lookup resolves a player by name. Unknown or malformed names yield a nil
// player and no error.
func (s *GameService) lookup(ctx context.Context, name string) (*domain.Player, error) {
	player, err := s.store.GetPlayerByName(ctx, name)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		return nil, nil
	}
	return player, err
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/math-quiz/internal/catalog"
	"github.com/math-quiz/internal/config"
	"github.com/math-quiz/internal/domain"
	"github.com/math-quiz/internal/metrics"
	"github.com/math-quiz/internal/progress"
	"github.com/math-quiz/internal/quiz"
	"github.com/math-quiz/internal/rewards"
)

const (
	recentSessionCount  = 5
	defaultPopularItems = 10
	defaultDailyDays    = 7
)

// GameService provides the game's business logic on top of the progress store
type GameService struct {
	store   *progress.Store
	engine  *rewards.Engine
	catalog *catalog.Catalog
	config  *config.GameConfig
	metrics *metrics.Metrics
	logger  *slog.Logger

	// mu runs one game completion at a time
	mu sync.Mutex

	quizMu  sync.Mutex
	quizRng quiz.Rand
}

// NewGameService creates a new game service
func NewGameService(
	store *progress.Store,
	engine *rewards.Engine,
	cat *catalog.Catalog,
	quizRng quiz.Rand,
	cfg *config.GameConfig,
	m *metrics.Metrics,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		store:   store,
		engine:  engine,
		catalog: cat,
		config:  cfg,
		metrics: m,
		logger:  logger,
		quizRng: quizRng,
	}
}

// validateCompletion checks a reported game outcome for internal consistency
func validateCompletion(c domain.GameCompletion) error {
	if c.Level < domain.MinLevel || c.Level > domain.MaxLevel {
		return fmt.Errorf("level %d: %w", c.Level, domain.ErrInvalidLevel)
	}
	if c.Score < 0 || c.Score > domain.MaxScore || c.Score%domain.PointsPerQuestion != 0 {
		return fmt.Errorf("score %d: %w", c.Score, domain.ErrInvalidScore)
	}
	if c.QuestionsCorrect < 0 || c.QuestionsCorrect > domain.QuestionsPerGame ||
		c.QuestionsCorrect*domain.PointsPerQuestion != c.Score {
		return fmt.Errorf("%d correct answers for score %d: %w", c.QuestionsCorrect, c.Score, domain.ErrInvalidScore)
	}
	if c.MaxStreak < 0 || c.MaxStreak > c.QuestionsCorrect {
		return fmt.Errorf("streak %d: %w", c.MaxStreak, domain.ErrInvalidScore)
	}
	if c.CompletionTimeSeconds != nil && *c.CompletionTimeSeconds < 0 {
		return fmt.Errorf("negative completion time: %w", domain.ErrInvalidRequest)
	}
	return nil
}

// CompleteGame records a finished game and grants the items and
// achievements it earned. Failing to persist one grant does not stop the
// others.
func (s *GameService) CompleteGame(ctx context.Context, c domain.GameCompletion) (*domain.GameResult, error) {
	if err := validateCompletion(c); err != nil {
		return nil, err
	}
	name, err := progress.NormalizeName(c.PlayerName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &domain.GameResult{
		NewItems:        []domain.UnlockedItem{},
		NewAchievements: []domain.Achievement{},
		Grade:           quiz.Grade(c.Score),
	}

	player, err := s.store.GetPlayerByName(ctx, name)
	if errors.Is(err, domain.ErrPlayerNotFound) {
		player, err = s.createPlayer(ctx, name, result)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving player: %w", err)
	}

	session, err := s.store.RecordSession(ctx, domain.NewSession{
		PlayerID:              player.ID,
		Level:                 c.Level,
		Score:                 c.Score,
		QuestionsCorrect:      c.QuestionsCorrect,
		MaxStreak:             c.MaxStreak,
		CompletionTimeSeconds: c.CompletionTimeSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("recording session: %w", err)
	}
	result.Session = *session

	reason := rewards.UnlockReason(c.Score, c.MaxStreak, c.Level)
	owned := itemIDs(s.store.PlayerCollection(ctx, player.ID))

	for _, itemID := range s.engine.CheckRewards(c.Score, c.MaxStreak, c.Level, owned) {
		item, err := s.store.UnlockItem(ctx, player.ID, itemID, reason)
		if err != nil {
			s.logger.Error("failed to unlock item",
				"player_id", player.ID,
				"item_id", itemID,
				"error", err,
			)
			continue
		}
		if item == nil {
			continue
		}
		result.NewItems = append(result.NewItems, *item)
		owned = append(owned, itemID)
		s.metrics.ItemUnlocked(reason)
	}

	totalGames := player.TotalGames + 1
	if updated, err := s.store.GetPlayer(ctx, player.ID); err == nil {
		totalGames = updated.TotalGames
	}

	grants := rewards.EvaluateAchievements(rewards.AchievementInput{
		Score:      c.Score,
		Level:      c.Level,
		MaxStreak:  c.MaxStreak,
		TotalGames: totalGames,
		OwnedItems: owned,
	}, s.catalog)
	for _, g := range grants {
		s.grantAchievement(ctx, player.ID, g.Type, g.Level, result)
	}

	s.metrics.GameCompleted(c.Level)
	s.logger.Info("game completed",
		"player_id", player.ID,
		"level", c.Level,
		"score", c.Score,
		"new_items", len(result.NewItems),
		"new_achievements", len(result.NewAchievements),
	)

	return result, nil
}

// createPlayer registers a player and grants the welcome achievement
func (s *GameService) createPlayer(ctx context.Context, name string, result *domain.GameResult) (*domain.Player, error) {
	player, err := s.store.CreatePlayer(ctx, name)
	if err != nil {
		return nil, err
	}
	s.grantAchievement(ctx, player.ID, rewards.AchievementFirstPlayer, 1, result)
	return player, nil
}

func (s *GameService) grantAchievement(ctx context.Context, playerID, achievementType string, level int, result *domain.GameResult) {
	a, err := s.store.GrantAchievement(ctx, playerID, achievementType, level)
	if err != nil {
		s.logger.Error("failed to grant achievement",
			"player_id", playerID,
			"achievement_type", achievementType,
			"achievement_level", level,
			"error", err,
		)
		return
	}
	if a == nil {
		return
	}
	if result != nil {
		result.NewAchievements = append(result.NewAchievements, *a)
	}
	s.metrics.AchievementEarned(achievementType)
}

// RegisterPlayer creates a player ahead of their first game
func (s *GameService) RegisterPlayer(ctx context.Context, name string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createPlayer(ctx, name, nil)
}

// ListPlayers returns all registered players
func (s *GameService) ListPlayers(ctx context.Context) []domain.Player {
	return s.store.ListPlayers(ctx)
}

// NextQuestion generates one question for the level
func (s *GameService) NextQuestion(level int) (domain.Question, error) {
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	return quiz.Generate(level, s.quizRng)
}

// NewRound generates a full game's worth of questions
func (s *GameService) NewRound(level int) ([]domain.Question, error) {
	n := s.config.QuestionsPerGame
	if n <= 0 {
		n = domain.QuestionsPerGame
	}
	s.quizMu.Lock()
	defer s.quizMu.Unlock()
	return quiz.GenerateRound(level, n, s.quizRng)
}

// Catalog returns every collectible item in display order
func (s *GameService) Catalog() []catalog.Item {
	return s.catalog.Items()
}

// ExportPlayer dumps every record belonging to a player
func (s *GameService) ExportPlayer(ctx context.Context, name string) (*domain.PlayerExport, error) {
	player, err := s.store.GetPlayerByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return &domain.PlayerExport{
		Player:       *player,
		Sessions:     s.store.PlayerSessions(ctx, player.ID, 0),
		Collection:   s.store.PlayerCollection(ctx, player.ID),
		Achievements: s.store.PlayerAchievements(ctx, player.ID),
		ExportedAt:   s.store.Now(),
	}, nil
}

func itemIDs(items []domain.UnlockedItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ItemID)
	}
	return ids
}

// roundDiv divides non-negative integers rounding half up
func roundDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (2*a + b) / (2 * b)
}

// Package progress persists players, sessions, unlocked items and
// achievements. Each collection is a JSON list stored under one key and
// rewritten in full on every change.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/math-quiz/internal/catalog"
	"github.com/math-quiz/internal/domain"
	"github.com/math-quiz/internal/kv"
	"github.com/math-quiz/internal/metrics"
)

// Collection keys
const (
	KeyPlayers      = "players"
	KeySessions     = "game_sessions"
	KeyItems        = "player_items"
	KeyAchievements = "achievements"
)

// Collections lists every key the store writes
var Collections = []string{KeyPlayers, KeySessions, KeyItems, KeyAchievements}

// Store is the progress store. Reads that fail degrade to empty results and
// writes that fail are dropped; both are logged and counted.
type Store struct {
	kv      kv.Store
	catalog *catalog.Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string

	// mu serialises read-modify-write cycles
	mu sync.Mutex
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides record id generation
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// New creates a progress store over the given key-value store
func New(store kv.Store, cat *catalog.Catalog, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		catalog: cat,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.now()
}

// NormalizeName trims and NFC-normalises a player name and checks its length
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" || utf8.RuneCountInString(name) > domain.MaxNameLength {
		return "", domain.ErrInvalidPlayerName
	}
	return name, nil
}

// load reads a collection, returning an empty list when it is missing or unreadable
func load[T any](ctx context.Context, s *Store, key string) []T {
	out, _ := loadForWrite[T](ctx, s, key)
	return out
}

// loadForWrite reads a collection ahead of a rewrite. ok is false when the
// read failed and the caller must not save. A corrupt collection reads as
// empty and ok, so the next write replaces it.
func loadForWrite[T any](ctx context.Context, s *Store, key string) (records []T, ok bool) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, true
		}
		s.logger.Warn("progress read failed, using empty collection", "key", key, "error", err)
		s.metrics.StorageError("read")
		return nil, false
	}

	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		s.logger.Warn("progress collection is corrupt, using empty collection", "key", key, "error", err)
		s.metrics.StorageError("read")
		return nil, true
	}
	return out, true
}

// save rewrites a collection. Failures are logged and the write is dropped.
func save[T any](ctx context.Context, s *Store, key string, records []T) {
	if records == nil {
		records = []T{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		s.logger.Warn("progress encode failed, write dropped", "key", key, "error", err)
		s.metrics.StorageError("write")
		return
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		s.logger.Warn("progress write failed, write dropped", "key", key, "error", err)
		s.metrics.StorageError("write")
	}
}

// dropWrite records a write skipped because its collection could not be read
func (s *Store) dropWrite(key string) {
	s.logger.Warn("progress collection unreadable, write dropped", "key", key)
	s.metrics.StorageError("write")
}

// CreatePlayer registers a new player with zeroed counters
func (s *Store) CreatePlayer(ctx context.Context, name string) (*domain.Player, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	players, ok := loadForWrite[domain.Player](ctx, s, KeyPlayers)
	for _, p := range players {
		if p.Name == name {
			return nil, fmt.Errorf("creating player %q: %w", name, domain.ErrPlayerExists)
		}
	}

	now := s.now()
	player := domain.Player{
		ID:           s.newID(),
		Name:         name,
		CreatedAt:    now,
		LastPlayedAt: now,
	}
	if ok {
		save(ctx, s, KeyPlayers, append(players, player))
	} else {
		s.dropWrite(KeyPlayers)
	}

	s.logger.Info("player created", "player_id", player.ID, "name", player.Name)
	return &player, nil
}

// GetPlayer returns a player by id
func (s *Store) GetPlayer(ctx context.Context, id string) (*domain.Player, error) {
	for _, p := range load[domain.Player](ctx, s, KeyPlayers) {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrPlayerNotFound
}

// GetPlayerByName returns a player by name
func (s *Store) GetPlayerByName(ctx context.Context, name string) (*domain.Player, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, domain.ErrPlayerNotFound
	}
	for _, p := range load[domain.Player](ctx, s, KeyPlayers) {
		if p.Name == name {
			return &p, nil
		}
	}
	return nil, domain.ErrPlayerNotFound
}

// ListPlayers returns every player in registration order
func (s *Store) ListPlayers(ctx context.Context) []domain.Player {
	players := load[domain.Player](ctx, s, KeyPlayers)
	if players == nil {
		return []domain.Player{}
	}
	return players
}

// RecordSession appends a session and recomputes the owner's totals from
// the full session history
func (s *Store) RecordSession(ctx context.Context, in domain.NewSession) (*domain.GameSession, error) {
	if in.PlayerID == "" {
		return nil, fmt.Errorf("recording session: %w", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session := domain.GameSession{
		ID:                    s.newID(),
		PlayerID:              in.PlayerID,
		Level:                 in.Level,
		Score:                 in.Score,
		QuestionsCorrect:      in.QuestionsCorrect,
		QuestionsTotal:        domain.QuestionsPerGame,
		MaxStreak:             in.MaxStreak,
		CompletionTimeSeconds: in.CompletionTimeSeconds,
		PlayedAt:              s.now(),
	}

	sessions, ok := loadForWrite[domain.GameSession](ctx, s, KeySessions)
	if !ok {
		s.dropWrite(KeySessions)
		return &session, nil
	}
	sessions = append(sessions, session)
	save(ctx, s, KeySessions, sessions)

	s.recomputeTotals(ctx, in.PlayerID, sessions)
	return &session, nil
}

// recomputeTotals derives a player's counters from their sessions. Caller holds mu.
func (s *Store) recomputeTotals(ctx context.Context, playerID string, sessions []domain.GameSession) {
	players, ok := loadForWrite[domain.Player](ctx, s, KeyPlayers)
	if !ok {
		s.dropWrite(KeyPlayers)
		return
	}
	idx := slices.IndexFunc(players, func(p domain.Player) bool { return p.ID == playerID })
	if idx < 0 {
		return
	}

	p := &players[idx]
	p.TotalGames = 0
	p.TotalScore = 0
	p.LastPlayedAt = p.CreatedAt
	for _, sess := range sessions {
		if sess.PlayerID != playerID {
			continue
		}
		p.TotalGames++
		p.TotalScore += sess.Score
		if sess.PlayedAt.After(p.LastPlayedAt) {
			p.LastPlayedAt = sess.PlayedAt
		}
	}
	save(ctx, s, KeyPlayers, players)
}

// PlayerSessions returns a player's sessions, most recent first. limit <= 0 returns all.
func (s *Store) PlayerSessions(ctx context.Context, playerID string, limit int) []domain.GameSession {
	out := []domain.GameSession{}
	for _, sess := range load[domain.GameSession](ctx, s, KeySessions) {
		if sess.PlayerID == playerID {
			out = append(out, sess)
		}
	}
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.GameSession) int {
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopScores returns the best sessions joined with player names, ordered by
// score then most recent play. level 0 includes every level.
func (s *Store) TopScores(ctx context.Context, level, limit int) []domain.ScoreEntry {
	names := make(map[string]string)
	for _, p := range load[domain.Player](ctx, s, KeyPlayers) {
		names[p.ID] = p.Name
	}

	out := []domain.ScoreEntry{}
	for _, sess := range load[domain.GameSession](ctx, s, KeySessions) {
		if level != 0 && sess.Level != level {
			continue
		}
		name, ok := names[sess.PlayerID]
		if !ok {
			name = "Unknown"
		}
		out = append(out, domain.ScoreEntry{GameSession: sess, PlayerName: name})
	}

	slices.SortStableFunc(out, func(a, b domain.ScoreEntry) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// UnlockItem adds an item to a player's collection. It returns nil when the
// player already owns the item.
func (s *Store) UnlockItem(ctx context.Context, playerID, itemID, reason string) (*domain.UnlockedItem, error) {
	if !s.catalog.Has(itemID) {
		return nil, fmt.Errorf("unlocking %q: %w", itemID, domain.ErrUnknownItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok := loadForWrite[domain.UnlockedItem](ctx, s, KeyItems)
	for _, it := range items {
		if it.PlayerID == playerID && it.ItemID == itemID {
			return nil, nil
		}
	}

	item := domain.UnlockedItem{
		ID:           s.newID(),
		PlayerID:     playerID,
		ItemID:       itemID,
		UnlockedAt:   s.now(),
		UnlockReason: reason,
	}
	if ok {
		save(ctx, s, KeyItems, append(items, item))
	} else {
		s.dropWrite(KeyItems)
	}
	return &item, nil
}

// PlayerCollection returns a player's items, most recently unlocked first
func (s *Store) PlayerCollection(ctx context.Context, playerID string) []domain.UnlockedItem {
	out := []domain.UnlockedItem{}
	for _, it := range load[domain.UnlockedItem](ctx, s, KeyItems) {
		if it.PlayerID == playerID {
			out = append(out, it)
		}
	}
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.UnlockedItem) int {
		return b.UnlockedAt.Compare(a.UnlockedAt)
	})
	return out
}

// CollectionProgress reports how much of the catalog a player owns
func (s *Store) CollectionProgress(ctx context.Context, playerID string) domain.CollectionProgress {
	return NewCollectionProgress(len(s.PlayerCollection(ctx, playerID)), s.catalog.Size())
}

// NewCollectionProgress builds a progress value with the percentage rounded
// to the nearest integer
func NewCollectionProgress(unlocked, total int) domain.CollectionProgress {
	p := domain.CollectionProgress{Total: total, Unlocked: unlocked}
	if total > 0 {
		p.Percentage = (unlocked*200 + total) / (2 * total)
	}
	return p
}

// CountItems returns the number of unlocked items across all players
func (s *Store) CountItems(ctx context.Context) int {
	return len(load[domain.UnlockedItem](ctx, s, KeyItems))
}

// MostCollectedItems counts owners per item, most owned first
func (s *Store) MostCollectedItems(ctx context.Context, limit int) []domain.ItemCount {
	counts := make(map[string]int)
	for _, it := range load[domain.UnlockedItem](ctx, s, KeyItems) {
		counts[it.ItemID]++
	}

	out := make([]domain.ItemCount, 0, len(counts))
	for id, n := range counts {
		entry := domain.ItemCount{ItemID: id, Count: n}
		if item, ok := s.catalog.Get(id); ok {
			entry.Name = item.Name
		}
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b domain.ItemCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.ItemID, b.ItemID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GrantAchievement records an achievement tier. It returns nil when the
// player already holds that tier.
func (s *Store) GrantAchievement(ctx context.Context, playerID, achievementType string, level int) (*domain.Achievement, error) {
	if achievementType == "" || level < 1 {
		return nil, fmt.Errorf("granting achievement: %w", domain.ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	achievements, ok := loadForWrite[domain.Achievement](ctx, s, KeyAchievements)
	for _, a := range achievements {
		if a.PlayerID == playerID && a.AchievementType == achievementType && a.AchievementLevel == level {
			return nil, nil
		}
	}

	a := domain.Achievement{
		ID:               s.newID(),
		PlayerID:         playerID,
		AchievementType:  achievementType,
		AchievementLevel: level,
		EarnedAt:         s.now(),
	}
	if ok {
		save(ctx, s, KeyAchievements, append(achievements, a))
	} else {
		s.dropWrite(KeyAchievements)
	}
	return &a, nil
}

// PlayerAchievements returns a player's achievements, most recent first
func (s *Store) PlayerAchievements(ctx context.Context, playerID string) []domain.Achievement {
	out := []domain.Achievement{}
	for _, a := range load[domain.Achievement](ctx, s, KeyAchievements) {
		if a.PlayerID == playerID {
			out = append(out, a)
		}
	}
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b domain.Achievement) int {
		return b.EarnedAt.Compare(a.EarnedAt)
	})
	return out
}

package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/math-quiz/internal/domain"
)

const dateLayout = "2006-01-02"

// DailyStats summarises the most recent days that saw at least one game,
// newest first
func (s *Store) DailyStats(ctx context.Context, days int) []domain.DailyStats {
	type dayAgg struct {
		games   int
		scores  int
		players map[string]struct{}
		items   map[string]int
	}
	byDay := make(map[string]*dayAgg)

	for _, sess := range load[domain.GameSession](ctx, s, KeySessions) {
		date := sess.PlayedAt.UTC().Format(dateLayout)
		agg, ok := byDay[date]
		if !ok {
			agg = &dayAgg{players: make(map[string]struct{}), items: make(map[string]int)}
			byDay[date] = agg
		}
		agg.games++
		agg.scores += sess.Score
		agg.players[sess.PlayerID] = struct{}{}
	}

	for _, it := range load[domain.UnlockedItem](ctx, s, KeyItems) {
		if agg, ok := byDay[it.UnlockedAt.UTC().Format(dateLayout)]; ok {
			agg.items[it.ItemID]++
		}
	}

	dates := make([]string, 0, len(byDay))
	for d := range byDay {
		dates = append(dates, d)
	}
	slices.SortFunc(dates, func(a, b string) int { return strings.Compare(b, a) })
	if days > 0 && len(dates) > days {
		dates = dates[:days]
	}

	out := make([]domain.DailyStats, 0, len(dates))
	for _, d := range dates {
		agg := byDay[d]
		out = append(out, domain.DailyStats{
			Date:                d,
			TotalGames:          agg.games,
			TotalPlayers:        len(agg.players),
			AverageScore:        float64(agg.scores) / float64(agg.games),
			MostCollectedItemID: mostCounted(agg.items),
		})
	}
	return out
}

// mostCounted returns the key with the highest count, smallest key on ties
func mostCounted(counts map[string]int) string {
	best, bestN := "", 0
	for id, n := range counts {
		if n > bestN || (n == bestN && id < best) {
			best, bestN = id, n
		}
	}
	return best
}

// Export returns the raw JSON of one collection. A collection that was never
// written yields kv.ErrNotFound.
func (s *Store) Export(ctx context.Context, key string) ([]byte, error) {
	if !slices.Contains(Collections, key) {
		return nil, fmt.Errorf("exporting %q: %w", key, domain.ErrInvalidRequest)
	}
	return s.kv.Get(ctx, key)
}

// Import replaces one collection with raw JSON after checking it decodes
// into the collection's record type
func (s *Store) Import(ctx context.Context, key string, raw []byte) error {
	var err error
	switch key {
	case KeyPlayers:
		err = json.Unmarshal(raw, new([]domain.Player))
	case KeySessions:
		err = json.Unmarshal(raw, new([]domain.GameSession))
	case KeyItems:
		err = json.Unmarshal(raw, new([]domain.UnlockedItem))
	case KeyAchievements:
		err = json.Unmarshal(raw, new([]domain.Achievement))
	default:
		return fmt.Errorf("importing %q: %w", key, domain.ErrInvalidRequest)
	}
	if err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

package domain

import "time"

// Player represents a registered player
type Player struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	LastPlayedAt time.Time `json:"last_played_at"`
	TotalGames   int       `json:"total_games"`
	TotalScore   int       `json:"total_score"`
}

// GameSession is one completed game. Sessions are never modified after creation.
type GameSession struct {
	ID                    string    `json:"id"`
	PlayerID              string    `json:"player_id"`
	Level                 int       `json:"level"`
	Score                 int       `json:"score"`
	QuestionsCorrect      int       `json:"questions_correct"`
	QuestionsTotal        int       `json:"questions_total"`
	MaxStreak             int       `json:"max_streak"`
	CompletionTimeSeconds *int      `json:"completion_time_seconds,omitempty"`
	PlayedAt              time.Time `json:"played_at"`
}

// UnlockedItem is an entry in a player's collection
type UnlockedItem struct {
	ID           string    `json:"id"`
	PlayerID     string    `json:"player_id"`
	ItemID       string    `json:"item_id"`
	UnlockedAt   time.Time `json:"unlocked_at"`
	UnlockReason string    `json:"unlock_reason"`
}

// Achievement is an earned achievement tier
type Achievement struct {
	ID               string    `json:"id"`
	PlayerID         string    `json:"player_id"`
	AchievementType  string    `json:"achievement_type"`
	AchievementLevel int       `json:"achievement_level"`
	EarnedAt         time.Time `json:"earned_at"`
}

// NewSession holds the caller-supplied fields of a session before it is stored
type NewSession struct {
	PlayerID              string
	Level                 int
	Score                 int
	QuestionsCorrect      int
	MaxStreak             int
	CompletionTimeSeconds *int
}

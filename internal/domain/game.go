package domain

import "time"

// Game constants
const (
	QuestionsPerGame  = 10
	PointsPerQuestion = 10
	MaxScore          = QuestionsPerGame * PointsPerQuestion
	MinLevel          = 1
	MaxLevel          = 3
	MaxNameLength     = 10
)

// Question is one multiple-choice arithmetic problem
type Question struct {
	Text          string `json:"text"`
	Options       []int  `json:"options"`
	CorrectAnswer int    `json:"correct_answer"`
	Level         int    `json:"level"`
	Left          int    `json:"left"`
	Right         int    `json:"right"`
	Operator      string `json:"operator"`
}

// GameCompletion is the outcome of a finished game as reported by the UI
type GameCompletion struct {
	PlayerName            string `json:"player_name"`
	Level                 int    `json:"level"`
	Score                 int    `json:"score"`
	QuestionsCorrect      int    `json:"questions_correct"`
	MaxStreak             int    `json:"max_streak"`
	CompletionTimeSeconds *int   `json:"completion_time_seconds,omitempty"`
}

// GameResult bundles everything a finished game produced
type GameResult struct {
	Session         GameSession    `json:"session"`
	NewItems        []UnlockedItem `json:"new_items"`
	NewAchievements []Achievement  `json:"new_achievements"`
	Grade           string         `json:"grade"`
}

// ScoreEntry is a session joined with its player's name, ordered by score
type ScoreEntry struct {
	GameSession
	PlayerName string `json:"player_name"`
}

// ScoreboardEntry is one ranked row of the scoreboard
type ScoreboardEntry struct {
	Rank       int       `json:"rank"`
	PlayerName string    `json:"player_name"`
	Score      int       `json:"score"`
	Level      int       `json:"level"`
	PlayedAt   time.Time `json:"played_at"`
	ItemCount  int       `json:"item_count"`
}

// CollectionProgress describes how much of the catalog a player owns
type CollectionProgress struct {
	Total      int `json:"total"`
	Unlocked   int `json:"unlocked"`
	Percentage int `json:"percentage"`
}

// PlayerStats is the per-player summary shown on the profile screen
type PlayerStats struct {
	Player         Player        `json:"player"`
	TotalGames     int           `json:"total_games"`
	BestScore      int           `json:"best_score"`
	AverageScore   int           `json:"average_score"`
	ItemCount      int           `json:"item_count"`
	Achievements   []Achievement `json:"achievements"`
	RecentSessions []GameSession `json:"recent_sessions"`
}

// ItemCount is how many players own a catalog item
type ItemCount struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name,omitempty"`
	Count  int    `json:"count"`
}

// DailyStats summarises one calendar day (UTC)
type DailyStats struct {
	Date                string  `json:"date"`
	TotalGames          int     `json:"total_games"`
	TotalPlayers        int     `json:"total_players"`
	AverageScore        float64 `json:"average_score"`
	MostCollectedItemID string  `json:"most_collected_item_id,omitempty"`
}

// GlobalStats summarises all stored progress
type GlobalStats struct {
	TotalPlayers    int    `json:"total_players"`
	TotalGames      int    `json:"total_games"`
	TotalItems      int    `json:"total_items"`
	AverageScore    int    `json:"average_score"`
	MostPopularItem string `json:"most_popular_item"`
}

// PlayerExport is a full dump of one player's records
type PlayerExport struct {
	Player       Player         `json:"player"`
	Sessions     []GameSession  `json:"sessions"`
	Collection   []UnlockedItem `json:"collection"`
	Achievements []Achievement  `json:"achievements"`
	ExportedAt   time.Time      `json:"exported_at"`
}

package handler

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/math-quiz/internal/catalog"
	"github.com/math-quiz/internal/domain"
)

type levelQuery struct {
	Level int `query:"level" minimum:"1" maximum:"3" default:"1"`
}

type scoreQuery struct {
	Score int `query:"score" minimum:"0" maximum:"100"`
}

type leaderboardQuery struct {
	Level int `query:"level" minimum:"0" maximum:"3" description:"0 or omitted for all levels"`
	Limit int `query:"limit" minimum:"0"`
}

type limitQuery struct {
	Limit int `query:"limit" minimum:"0"`
}

type daysQuery struct {
	Days int `query:"days" minimum:"0" default:"7"`
}

type playerPath struct {
	Name string `path:"name"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Math Quiz API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Question generation, game results, collections and scoreboards for the math quiz. " +
		"Every JSON response is wrapped in {success, data, error}; the schemas below describe data.")

	// GET /api/v1/questions
	getQuestion, _ := r.NewOperationContext(http.MethodGet, "/api/v1/questions")
	getQuestion.SetSummary("Generate question")
	getQuestion.SetDescription("Returns one multiple-choice question for the level.")
	getQuestion.AddReqStructure(levelQuery{})
	getQuestion.AddRespStructure(domain.Question{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuestion.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getQuestion)

	// GET /api/v1/questions/round
	getRound, _ := r.NewOperationContext(http.MethodGet, "/api/v1/questions/round")
	getRound.SetSummary("Generate round")
	getRound.SetDescription("Returns the questions of one full game.")
	getRound.AddReqStructure(levelQuery{})
	getRound.AddRespStructure([]domain.Question{}, openapi.WithHTTPStatus(http.StatusOK))
	getRound.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getRound)

	// POST /api/v1/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/v1/games")
	postGame.SetSummary("Complete game")
	postGame.SetDescription("Records a finished game and returns the session with newly unlocked items and achievements. " +
		"The player is created on first play.")
	postGame.AddReqStructure(domain.GameCompletion{})
	postGame.AddRespStructure(domain.GameResult{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGame.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postGame)

	// GET /api/v1/players
	listPlayers, _ := r.NewOperationContext(http.MethodGet, "/api/v1/players")
	listPlayers.SetSummary("List players")
	listPlayers.AddRespStructure([]domain.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPlayers)

	// POST /api/v1/players
	postPlayer, _ := r.NewOperationContext(http.MethodPost, "/api/v1/players")
	postPlayer.SetSummary("Register player")
	postPlayer.SetDescription("Creates a player. Names are trimmed and limited to 10 characters.")
	postPlayer.AddReqStructure(PlayerRequest{})
	postPlayer.AddRespStructure(domain.Player{}, openapi.WithHTTPStatus(http.StatusCreated))
	postPlayer.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postPlayer.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postPlayer)

	// GET /api/v1/players/{name}/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/v1/players/{name}/stats")
	getStats.SetSummary("Player stats")
	getStats.SetDescription("Returns a player's summary. data is null for unknown players.")
	getStats.AddReqStructure(playerPath{})
	getStats.AddRespStructure(domain.PlayerStats{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStats)

	// GET /api/v1/players/{name}/collection
	getCollection, _ := r.NewOperationContext(http.MethodGet, "/api/v1/players/{name}/collection")
	getCollection.SetSummary("Player collection")
	getCollection.SetDescription("Returns unlocked items, most recent first. Empty for unknown players.")
	getCollection.AddReqStructure(playerPath{})
	getCollection.AddRespStructure([]domain.UnlockedItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCollection)

	// GET /api/v1/players/{name}/collection/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/v1/players/{name}/collection/progress")
	getProgress.SetSummary("Collection progress")
	getProgress.AddReqStructure(playerPath{})
	getProgress.AddRespStructure(domain.CollectionProgress{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getProgress)

	// GET /api/v1/players/{name}/collection/categories
	getByCategory, _ := r.NewOperationContext(http.MethodGet, "/api/v1/players/{name}/collection/categories")
	getByCategory.SetSummary("Collection by category")
	getByCategory.AddReqStructure(playerPath{})
	getByCategory.AddRespStructure(map[string][]domain.UnlockedItem{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getByCategory)

	// GET /api/v1/players/{name}/export
	getExport, _ := r.NewOperationContext(http.MethodGet, "/api/v1/players/{name}/export")
	getExport.SetSummary("Export player")
	getExport.SetDescription("Dumps every record belonging to the player.")
	getExport.AddReqStructure(playerPath{})
	getExport.AddRespStructure(domain.PlayerExport{}, openapi.WithHTTPStatus(http.StatusOK))
	getExport.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getExport)

	// GET /api/v1/leaderboard
	getLeaderboard, _ := r.NewOperationContext(http.MethodGet, "/api/v1/leaderboard")
	getLeaderboard.SetSummary("Scoreboard")
	getLeaderboard.SetDescription("Best sessions ranked by score. Equal scores share a rank.")
	getLeaderboard.AddReqStructure(leaderboardQuery{})
	getLeaderboard.AddRespStructure([]domain.ScoreboardEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	getLeaderboard.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getLeaderboard)

	// GET /api/v1/catalog
	getCatalog, _ := r.NewOperationContext(http.MethodGet, "/api/v1/catalog")
	getCatalog.SetSummary("Item catalog")
	getCatalog.AddRespStructure([]catalog.Item{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCatalog)

	// GET /api/v1/grade
	getGrade, _ := r.NewOperationContext(http.MethodGet, "/api/v1/grade")
	getGrade.SetSummary("Grade score")
	getGrade.AddReqStructure(scoreQuery{})
	getGrade.AddRespStructure(GradeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGrade.AddRespStructure(APIResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getGrade)

	// GET /api/v1/stats/global
	getGlobal, _ := r.NewOperationContext(http.MethodGet, "/api/v1/stats/global")
	getGlobal.SetSummary("Global stats")
	getGlobal.AddRespStructure(domain.GlobalStats{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getGlobal)

	// GET /api/v1/stats/daily
	getDaily, _ := r.NewOperationContext(http.MethodGet, "/api/v1/stats/daily")
	getDaily.SetSummary("Daily stats")
	getDaily.SetDescription("Per-day summaries for the most recent days with games, newest first.")
	getDaily.AddReqStructure(daysQuery{})
	getDaily.AddRespStructure([]domain.DailyStats{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getDaily)

	// GET /api/v1/stats/popular
	getPopular, _ := r.NewOperationContext(http.MethodGet, "/api/v1/stats/popular")
	getPopular.SetSummary("Popular items")
	getPopular.AddReqStructure(limitQuery{})
	getPopular.AddRespStructure([]domain.ItemCount{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getPopular)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/swgui/v5emb"

	"github.com/math-quiz/internal/config"
	"github.com/math-quiz/internal/domain"
	"github.com/math-quiz/internal/metrics"
	"github.com/math-quiz/internal/quiz"
	"github.com/math-quiz/internal/service"
)

var errStorageUnavailable = errors.New("storage unavailable")

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP handlers for the quiz API
type Handler struct {
	service  *service.GameService
	store    Pinger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	limiter  *RateLimiter
	spaDir   string
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	svc *service.GameService,
	store Pinger,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	limiter *RateLimiter,
	cfg *config.ServerConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:  svc,
		store:    store,
		metrics:  m,
		gatherer: gatherer,
		limiter:  limiter,
		spaDir:   cfg.SPADir,
		logger:   logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PlayerRequest is the body of a player registration
type PlayerRequest struct {
	Name string `json:"name" required:"true" maxLength:"10"`
}

// GradeResponse describes a score's grade
type GradeResponse struct {
	Score    int    `json:"score"`
	Grade    string `json:"grade"`
	Accuracy int    `json:"accuracy"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics.Middleware)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Math Quiz API", "/openapi.json", "/docs"))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/questions", h.GetQuestion)
		r.Get("/questions/round", h.GetRound)
		r.Get("/grade", h.GetGrade)
		r.Get("/catalog", h.GetCatalog)
		r.Get("/leaderboard", h.GetLeaderboard)

		r.With(h.limiter.Middleware).Post("/games", h.CompleteGame)

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.ListPlayers)
			r.With(h.limiter.Middleware).Post("/", h.RegisterPlayer)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/stats", h.GetPlayerStats)
				r.Get("/collection", h.GetCollection)
				r.Get("/collection/progress", h.GetCollectionProgress)
				r.Get("/collection/categories", h.GetCollectionByCategory)
				r.Get("/export", h.ExportPlayer)
			})
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/global", h.GetGlobalStats)
			r.Get("/daily", h.GetDailyStats)
			r.Get("/popular", h.GetPopularItems)
		})
	})

	if h.spaDir != "" {
		if info, err := os.Stat(h.spaDir); err == nil && info.IsDir() {
			h.logger.Info("serving SPA", "dir", h.spaDir)
			r.NotFound(handleSPA(h.spaDir))
		} else {
			h.logger.Warn("SPA directory not found, skipping", "dir", h.spaDir)
		}
	}

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeCreated writes a 201 JSON response
func (h *Handler) writeCreated(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error onto a status code
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrPlayerExists):
		h.writeError(w, http.StatusConflict, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// intQuery parses an optional integer query parameter
func intQuery(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("query parameter %s: %w", name, domain.ErrInvalidRequest)
	}
	return v, nil
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck reports whether progress storage is reachable
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		h.writeError(w, http.StatusServiceUnavailable, errStorageUnavailable)
		return
	}
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// GetQuestion generates one question
func (h *Handler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	level, err := intQuery(r, "level", domain.MinLevel)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	q, err := h.service.NextQuestion(level)
	if err != nil {
		h.writeServiceError(w, "next question", err)
		return
	}
	h.writeSuccess(w, q)
}

// GetRound generates a full game of questions
func (h *Handler) GetRound(w http.ResponseWriter, r *http.Request) {
	level, err := intQuery(r, "level", domain.MinLevel)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	round, err := h.service.NewRound(level)
	if err != nil {
		h.writeServiceError(w, "new round", err)
		return
	}
	h.writeSuccess(w, round)
}

// GetGrade returns the grade emoji for a score
func (h *Handler) GetGrade(w http.ResponseWriter, r *http.Request) {
	score, err := intQuery(r, "score", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if score < 0 || score > domain.MaxScore {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidScore)
		return
	}

	h.writeSuccess(w, GradeResponse{
		Score:    score,
		Grade:    quiz.Grade(score),
		Accuracy: quiz.Accuracy(score),
	})
}

// GetCatalog returns every collectible item
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.Catalog())
}

// CompleteGame records a finished game
func (h *Handler) CompleteGame(w http.ResponseWriter, r *http.Request) {
	var completion domain.GameCompletion
	if err := json.NewDecoder(r.Body).Decode(&completion); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	result, err := h.service.CompleteGame(r.Context(), completion)
	if err != nil {
		h.writeServiceError(w, "complete game", err)
		return
	}
	h.writeCreated(w, result)
}

// ListPlayers returns all players
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.ListPlayers(r.Context()))
}

// RegisterPlayer creates a player
func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	var req PlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	player, err := h.service.RegisterPlayer(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, "register player", err)
		return
	}
	h.writeCreated(w, player)
}

// GetPlayerStats returns a player's summary, or null for unknown players
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetPlayerStats(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, "player stats", err)
		return
	}
	h.writeSuccess(w, stats)
}

// GetCollection returns a player's items
func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.GetCollection(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, "collection", err)
		return
	}
	h.writeSuccess(w, items)
}

// GetCollectionProgress returns catalog completeness for a player
func (h *Handler) GetCollectionProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.service.GetCollectionProgress(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, "collection progress", err)
		return
	}
	h.writeSuccess(w, progress)
}

// GetCollectionByCategory returns a player's items grouped by category
func (h *Handler) GetCollectionByCategory(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.GetCollectionByCategory(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, "collection by category", err)
		return
	}
	h.writeSuccess(w, groups)
}

// ExportPlayer returns every record of a player
func (h *Handler) ExportPlayer(w http.ResponseWriter, r *http.Request) {
	export, err := h.service.ExportPlayer(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, "export player", err)
		return
	}
	h.writeSuccess(w, export)
}

// GetLeaderboard returns the ranked scoreboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	level, err := intQuery(r, "level", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	entries, err := h.service.GetScoreboard(r.Context(), level, limit)
	if err != nil {
		h.writeServiceError(w, "leaderboard", err)
		return
	}
	h.writeSuccess(w, entries)
}

// GetGlobalStats returns totals across all players
func (h *Handler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, h.service.GetGlobalStats(r.Context()))
}

// GetDailyStats returns per-day summaries
func (h *Handler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	days, err := intQuery(r, "days", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeSuccess(w, h.service.GetDailyStats(r.Context(), days))
}

// GetPopularItems returns the most collected items
func (h *Handler) GetPopularItems(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeSuccess(w, h.service.GetPopularItems(r.Context(), limit))
}

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	gamesCompleted      *prometheus.CounterVec
	itemsUnlocked       *prometheus.CounterVec
	achievementsEarned  *prometheus.CounterVec
	storageErrors       *prometheus.CounterVec
	backupRuns          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		gamesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_games_completed_total",
				Help: "Completed games by level",
			},
			[]string{"level"},
		),
		itemsUnlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_items_unlocked_total",
				Help: "Collectible items unlocked by reason",
			},
			[]string{"reason"},
		),
		achievementsEarned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_achievements_earned_total",
				Help: "Achievements earned by type",
			},
			[]string{"type"},
		),
		storageErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_storage_errors_total",
				Help: "Failed reads and writes against the progress store",
			},
			[]string{"op"},
		),
		backupRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quiz_backup_runs_total",
				Help: "Backup cycles by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.gamesCompleted,
		m.itemsUnlocked,
		m.achievementsEarned,
		m.storageErrors,
		m.backupRuns,
	)
	return m
}

// GameCompleted counts a finished game
func (m *Metrics) GameCompleted(level int) {
	if m == nil {
		return
	}
	m.gamesCompleted.WithLabelValues(strconv.Itoa(level)).Inc()
}

// ItemUnlocked counts an unlocked item
func (m *Metrics) ItemUnlocked(reason string) {
	if m == nil {
		return
	}
	m.itemsUnlocked.WithLabelValues(reason).Inc()
}

// AchievementEarned counts an earned achievement
func (m *Metrics) AchievementEarned(achievementType string) {
	if m == nil {
		return
	}
	m.achievementsEarned.WithLabelValues(achievementType).Inc()
}

// StorageError counts a failed storage operation ("read" or "write")
func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

// BackupRun counts a backup cycle ("ok" or "error")
func (m *Metrics) BackupRun(result string) {
	if m == nil {
		return
	}
	m.backupRuns.WithLabelValues(result).Inc()
}

// unmatchedPath labels requests that no route matched
const unmatchedPath = "unmatched"

// Middleware records request counts and durations. Paths are labelled with
// the chi route pattern so player names do not blow up cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := unmatchedPath
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

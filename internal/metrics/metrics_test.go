package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.GameCompleted(2)
	m.GameCompleted(2)
	m.ItemUnlocked("perfect_score")
	m.AchievementEarned("collector")
	m.StorageError("write")
	m.BackupRun("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.gamesCompleted.WithLabelValues("2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsUnlocked.WithLabelValues("perfect_score")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.achievementsEarned.WithLabelValues("collector")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageErrors.WithLabelValues("write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backupRuns.WithLabelValues("ok")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.GameCompleted(1)
		m.ItemUnlocked("x")
		m.AchievementEarned("x")
		m.StorageError("read")
		m.BackupRun("error")
	})

	rec := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/players/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, name := range []string{"amy", "ben"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/players/"+name, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("/players/{name}", http.MethodGet, "200")))
}

func TestMiddlewareLabelsUnmatchedRoutes(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/favicon.ico", "/some/random/page", "/wp-login.php"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("unmatched", http.MethodGet, "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpRequestsTotal))
}

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipferry/clipferry/internal/api/handler"
	"github.com/clipferry/clipferry/internal/stats"
)

type fixedQueue int

func (q fixedQueue) QueueDepth() int { return int(q) }

func newTestRouter(t *testing.T, apiKey string) http.Handler {
	t.Helper()
	h := handler.NewHealthHandler(stats.New(), fixedQueue(0), t.TempDir())
	return NewRouter(h, apiKey)
}

func TestRouter_HealthOpen(t *testing.T) {
	router := newTestRouter(t, "secret")

	for _, path := range []string{"/health", "/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200 without auth", path, rec.Code)
		}
	}
}

func TestRouter_StatsRequiresKey(t *testing.T) {
	router := newTestRouter(t, "secret")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET /stats without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /stats with key = %d, want 200", rec.Code)
	}
}

func TestRouter_StatsOpenWithoutKey(t *testing.T) {
	router := newTestRouter(t, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /stats = %d, want 200 when no key configured", rec.Code)
	}
}

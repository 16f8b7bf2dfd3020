package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/napwatch/internal/api"
	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/engine"
	"github.com/IshaanNene/napwatch/internal/observability"
	"github.com/IshaanNene/napwatch/internal/storage"
	"github.com/IshaanNene/napwatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type fakeScheduler struct {
	result *types.RunResult
	shared bool
	err    error
	calls  int
}

func (f *fakeScheduler) Trigger(context.Context, types.Trigger) (*types.RunResult, bool, error) {
	f.calls++
	return f.result, f.shared, f.err
}

func (f *fakeScheduler) Status() engine.Status {
	return engine.Status{State: "idle", Runs: int64(f.calls)}
}

type brokenReader struct{}

func (brokenReader) FindAll(context.Context) ([]types.ArticleRecord, error) {
	return nil, errors.New("connection refused")
}

func newServer(t *testing.T, sched api.Scheduler, reader api.Reader, mutate ...func(*config.Config)) http.Handler {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.TriggerRate = 0
	for _, m := range mutate {
		m(cfg)
	}
	return api.NewServer(cfg, sched, reader, observability.NewMetrics(), testLogger).Handler()
}

func seededStore(t *testing.T) *storage.MemoryStore {
	t.Helper()
	s := storage.NewMemoryStore()
	snap := types.NewSnapshot("run-secret", []types.ArticleRecord{
		{Title: "Budget approved", Author: "Ali Raza", Locations: []string{"Karachi", "Lahore"}, Persons: []string{"Khan"}, CapturedAt: time.Now()},
		{Title: "", Author: "Web Desk", Locations: []string{"Lahore"}, Persons: []string{}, CapturedAt: time.Now()},
	})
	require.NoError(t, s.ReplaceAll(context.Background(), snap))
	return s
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHome(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, storage.NewMemoryStore())
	w := do(h, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestArticlesHideInternalIdentifiers(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, seededStore(t))

	for _, path := range []string{"/api/articles", "/get_nap"} {
		w := do(h, http.MethodGet, path)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.NotContains(t, w.Body.String(), "run_id", path)
		assert.NotContains(t, w.Body.String(), "run-secret", path)
		assert.NotContains(t, w.Body.String(), "_id", path)

		var records []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
		require.Len(t, records, 2)
		for _, key := range []string{"title", "name", "area", "person", "timestamp"} {
			assert.Contains(t, records[0], key)
		}
		assert.Equal(t, "Web Desk", records[1]["name"])
	}
}

func TestArticlesEmptyDatasetIsArray(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, storage.NewMemoryStore())
	w := do(h, http.MethodGet, "/api/articles")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestArticlesReadFailure(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, brokenReader{})
	w := do(h, http.MethodGet, "/api/articles")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestScrapeSuccess(t *testing.T) {
	sched := &fakeScheduler{result: &types.RunResult{RunID: "r1", Records: 4}, shared: true}
	h := newServer(t, sched, storage.NewMemoryStore())

	w := do(h, http.MethodPost, "/api/scrape")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Scraping completed successfully!", body["status"])
	assert.Equal(t, "r1", body["run_id"])
	assert.EqualValues(t, 4, body["records"])
	assert.Equal(t, true, body["shared"])

	w = do(h, http.MethodGet, "/scrape_now")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, sched.calls)
}

func TestScrapeFailureIsGeneric(t *testing.T) {
	sched := &fakeScheduler{err: &types.RunError{RunID: "r1", Stage: "session", Err: errors.New("chromium missing")}}
	h := newServer(t, sched, storage.NewMemoryStore())

	w := do(h, http.MethodPost, "/api/scrape")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"scrape failed"}`, w.Body.String())
}

func TestScrapeRateLimited(t *testing.T) {
	sched := &fakeScheduler{result: &types.RunResult{RunID: "r1"}}
	h := newServer(t, sched, storage.NewMemoryStore(), func(c *config.Config) {
		c.Server.TriggerRate = time.Hour
		c.Server.TriggerBurst = 1
	})

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/scrape").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/api/scrape").Code)
	assert.Equal(t, 1, sched.calls)
}

func TestSummary(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, seededStore(t))
	w := do(h, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Articles int `json:"articles"`
		Areas    []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"areas"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Articles)
	require.Len(t, body.Areas, 2)
	assert.Equal(t, "Lahore", body.Areas[0].Name)
	assert.Equal(t, 2, body.Areas[0].Count)
}

func TestDashboardAndStatus(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, storage.NewMemoryStore())

	for _, path := range []string{"/visualize_nap", "/dashboard"} {
		w := do(h, http.MethodGet, path)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	}

	w := do(h, http.MethodGet, "/api/status")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)

	w = do(h, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newServer(t, &fakeScheduler{}, storage.NewMemoryStore())
	do(h, http.MethodGet, "/")

	w := do(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "napwatch_api_requests_total")

	h = newServer(t, &fakeScheduler{}, storage.NewMemoryStore(), func(c *config.Config) { c.Metrics.Enabled = false })
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/metrics").Code)
}

// internal/api/health_handlers_test.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FairForge/labelbench/internal/loadtest"
)

type fakeSweep struct {
	progress  loadtest.Progress
	summaries []loadtest.LevelSummary
}

func (f *fakeSweep) Progress() loadtest.Progress { return f.progress }
func (f *fakeSweep) Summaries() []loadtest.LevelSummary { return f.summaries }

func newTestServer(t *testing.T, sweep SweepSource, metrics http.Handler) *Server {
	t.Helper()
	return NewServer("127.0.0.1:0", sweep, metrics, nil)
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, &fakeSweep{progress: loadtest.Progress{RunID: "run-1", Running: true}}, nil)

	w := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, "run-1", resp["run_id"])
	assert.Equal(t, true, resp["running"])
	assert.Equal(t, 1.0, resp["requests"])
}

func TestProgressHandler(t *testing.T) {
	sweep := &fakeSweep{progress: loadtest.Progress{
		RunID:    "run-1",
		Running:  true,
		Level:    50,
		LevelIdx: 1,
		Levels:   []int{10, 50, 100},
		Batch:    loadtest.PoolStats{Size: 50, Submitted: 8, InFlight: 3, Completed: 5},
		Records:  13,
	}}
	s := newTestServer(t, sweep, nil)

	w := get(t, s, "/progress")
	require.Equal(t, http.StatusOK, w.Code)

	var p loadtest.Progress
	require.NoError(t, json.NewDecoder(w.Body).Decode(&p))
	assert.Equal(t, 50, p.Level)
	assert.Equal(t, 13, p.Records)
	assert.Equal(t, int64(3), int64(p.Batch.InFlight))
	assert.Equal(t, []int{10, 50, 100}, p.Levels)
}

func TestSummariesHandler(t *testing.T) {
	sweep := &fakeSweep{summaries: []loadtest.LevelSummary{{LoadLevel: 10, Tasks: 8, MeanF1: 0.9}}}
	s := newTestServer(t, sweep, nil)

	w := get(t, s, "/summaries")
	require.Equal(t, http.StatusOK, w.Code)

	var got []loadtest.LevelSummary
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, 0.9, got[0].MeanF1)
}

func TestHandlers_NoSweep(t *testing.T) {
	s := newTestServer(t, nil, nil)

	assert.Equal(t, http.StatusOK, get(t, s, "/healthz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s, "/progress").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s, "/summaries").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/metrics").Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "labelbench_tasks_in_flight 0\n")
	})
	s := newTestServer(t, &fakeSweep{}, metrics)

	w := get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "labelbench_tasks_in_flight")

	req := httptest.NewRequest(http.MethodPost, "/progress", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_StartShutdown(t *testing.T) {
	s := newTestServer(t, &fakeSweep{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}

package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/air-quality-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/air-quality-etl/internal/pipeline"
)

type mockRunner struct {
	err    error
	status pipeline.Status
}

func (m *mockRunner) CheckReadiness(_ context.Context) error { return m.err }

func (m *mockRunner) Status() pipeline.Status { return m.status }

func newTestServer(runner *mockRunner) *httpadapter.Server {
	return httpadapter.NewServer(":0", runner, slog.Default())
}

func serve(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := serve(t, newTestServer(&mockRunner{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := serve(t, newTestServer(&mockRunner{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := serve(t, newTestServer(&mockRunner{err: errors.New("pipeline has not completed a run yet")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	runner := &mockRunner{status: pipeline.Status{
		LastRun:  time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC),
		Years:    []int{2015, 2018},
		Skipped:  []int{2021},
		Stations: 42,
	}}

	rec := serve(t, newTestServer(runner), "/status")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["running"])
	assert.Equal(t, "2025-03-03T12:00:00Z", body["last_run"])
	assert.Equal(t, []any{2015.0, 2018.0}, body["years"])
	assert.Equal(t, []any{2021.0}, body["skipped"])
	assert.InDelta(t, 42, body["stations"], 0)
	assert.NotContains(t, body, "error")
}

func TestStatusEndpoint_BeforeFirstRun(t *testing.T) {
	rec := serve(t, newTestServer(&mockRunner{}), "/status")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "last_run")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(t, newTestServer(&mockRunner{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

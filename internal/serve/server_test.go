package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arpalab/resolvit/internal/checkpoint"
	"github.com/arpalab/resolvit/internal/model"
	"github.com/arpalab/resolvit/internal/monitoring"
)

func newTestServer(t *testing.T) (*httptest.Server, checkpoint.Store) {
	t.Helper()
	st, err := checkpoint.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	srv := httptest.NewServer(New(monitoring.NewCollector(st)).Routes())
	t.Cleanup(srv.Close)
	return srv, st
}

func seedRun(t *testing.T, st checkpoint.Store, runID string) {
	t.Helper()
	d := model.Decision{CompanyKey: "rossi|verona|", RunID: runID, Timestamp: time.Now().UTC()}
	require.NoError(t, st.Append(context.Background(), runID, "fast-precision", checkpoint.SetValid, d))
}

func getJSON(t *testing.T, url string, into any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	return resp.StatusCode
}

func TestServer_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/healthz", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_RunsEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	var body struct {
		Runs []string `json:"runs"`
	}
	status := getJSON(t, srv.URL+"/runs", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body.Runs)
	assert.Empty(t, body.Runs)
}

func TestServer_Runs(t *testing.T) {
	srv, st := newTestServer(t)
	seedRun(t, st, "run-1")
	seedRun(t, st, "run-2")

	var body struct {
		Runs []string `json:"runs"`
	}
	status := getJSON(t, srv.URL+"/runs", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, body.Runs)
}

func TestServer_RunSnapshot(t *testing.T) {
	srv, st := newTestServer(t)
	seedRun(t, st, "run-1")

	var snap monitoring.RunSnapshot
	status := getJSON(t, srv.URL+"/runs/run-1", &snap)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, 1, snap.Valid)
	assert.Equal(t, 1, snap.Total)
}

func TestServer_RunNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]string
	status := getJSON(t, srv.URL+"/runs/ghost", &body)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "unknown run", body["error"])
}

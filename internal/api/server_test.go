package api

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/galaxygroups/internal/db"
	"github.com/banshee-data/galaxygroups/internal/testutil"
)

func newTestServer(t *testing.T) *http.ServeMux {
	t.Helper()
	store, err := db.NewDB(filepath.Join(t.TempDir(), "fof.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	run := db.RunRecord{
		RunID: "run-1", Name: "tight", AlgorithmType: "classic", Seed: 4,
		SettingsJSON: "{}", Galaxies: 4, GroupCount: 2, CreatedAt: time.Unix(1700000000, 0),
	}
	groups := []db.GroupRecord{
		{GroupIndex: 0, SeedGalaxy: 0, Iterations: 2, Converged: true, Multiplicity: 3, Members: []int{0, 1, 2}},
		{GroupIndex: 1, SeedGalaxy: 3, Iterations: 1, Converged: true, Multiplicity: 1, Members: []int{3}},
	}
	require.NoError(t, store.RecordRun(context.Background(), run, groups))

	mux := http.NewServeMux()
	NewServer(store).Register(mux)
	return mux
}

func get(t *testing.T, mux *http.ServeMux, path string, out interface{}) int {
	t.Helper()
	rec := testutil.NewTestRecorder()
	mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodGet, path))
	if out != nil && rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestListRuns(t *testing.T) {
	mux := newTestServer(t)

	var runs []db.RunRecord
	require.Equal(t, http.StatusOK, get(t, mux, "/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "tight", runs[0].Name)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/runs?limit=x", nil))
}

func TestGetRun(t *testing.T) {
	mux := newTestServer(t)

	var run db.RunRecord
	require.Equal(t, http.StatusOK, get(t, mux, "/api/runs/run-1", &run))
	assert.Equal(t, 2, run.GroupCount)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/runs/missing", nil))
}

func TestListGroups(t *testing.T) {
	mux := newTestServer(t)

	var groups []db.GroupRecord
	require.Equal(t, http.StatusOK, get(t, mux, "/api/runs/run-1/groups", &groups))
	assert.Len(t, groups, 2)

	groups = nil
	require.Equal(t, http.StatusOK, get(t, mux, "/api/runs/run-1/groups?min_multiplicity=2", &groups))
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Multiplicity)

	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/runs/run-1/groups?min_multiplicity=x", nil))
	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/runs/missing/groups", nil))
}

func TestListMembers(t *testing.T) {
	mux := newTestServer(t)

	var members []int
	require.Equal(t, http.StatusOK, get(t, mux, "/api/runs/run-1/groups/0/members", &members))
	assert.Equal(t, []int{0, 1, 2}, members)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/runs/run-1/groups/7/members", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/runs/run-1/groups/-1/members", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, func() int {
		rec := testutil.NewTestRecorder()
		mux.ServeHTTP(rec, testutil.NewTestRequest(http.MethodPost, "/api/runs"))
		return rec.Code
	}())
}

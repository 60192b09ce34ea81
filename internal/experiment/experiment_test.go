package experiment

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/galaxygroups/internal/fof"
	"github.com/banshee-data/galaxygroups/internal/testutil"
	"github.com/banshee-data/galaxygroups/internal/trial"
)

type failingAlgorithm struct{}

var errBoom = errors.New("boom")

func (failingAlgorithm) Run(context.Context, *rand.Rand, fof.Progress) ([]fof.Group, error) {
	return nil, errBoom
}

func newTrials(t *testing.T, names ...string) []*trial.Trial {
	t.Helper()
	s := testutil.NewSurvey(t, testutil.TwoClusters())
	out := make([]*trial.Trial, len(names))
	for i, name := range names {
		tr, err := trial.New(s, fof.Args{D0: 0.56, V0: 350, DMax: 2, VMax: 700}, trial.WithName(name))
		require.NoError(t, err)
		out[i] = tr
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, Config{})
	assert.ErrorIs(t, err, ErrNoTrials)

	_, err = New(newTrials(t, "a", "a"), Config{})
	assert.ErrorIs(t, err, ErrDuplicateTrial)

	e, err := New(newTrials(t, "a", "b"), Config{})
	require.NoError(t, err)
	assert.Positive(t, e.cfg.Concurrency)
}

func TestRun_TwoClusters(t *testing.T) {
	e, err := New(newTrials(t, "a", "b", "c"), Config{Seed: 10, Concurrency: 2})
	require.NoError(t, err)

	results, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, uint64(10+i), r.Seed)
		assert.Len(t, r.Groups, 2)
		assert.Zero(t, r.NonConverged)
	}
	assert.Equal(t, "b", results[1].Settings.Name)

	snap := e.Tracker().Snapshot()
	require.Len(t, snap, 3)
	for _, p := range snap {
		assert.True(t, p.Done(), "task %s", p.TaskID)
		assert.Equal(t, 2, p.Groups)
	}
	assigned, total := e.Tracker().Overall()
	assert.Equal(t, 30, total)
	assert.Equal(t, 30, assigned)

	summary := Summarize(results)
	assert.Equal(t, Summary{Trials: 3, GroupCountMean: 2}, summary)
}

func TestRun_ReproducibleAcrossConcurrency(t *testing.T) {
	trials := newTrials(t, "a", "b", "c", "d")
	serial, err := New(trials, Config{Seed: 4, Concurrency: 1})
	require.NoError(t, err)
	parallel, err := New(trials, Config{Seed: 4, Concurrency: 4})
	require.NoError(t, err)

	a, err := serial.Run(context.Background())
	require.NoError(t, err)
	b, err := parallel.Run(context.Background())
	require.NoError(t, err)

	for i := range a {
		if diff := cmp.Diff(a[i].Groups, b[i].Groups); diff != "" {
			t.Errorf("trial %d groups differ (-serial +parallel):\n%s", i, diff)
		}
	}
}

func TestRun_PropagatesTrialError(t *testing.T) {
	bad, err := trial.New(nil, fof.Args{D0: 1, V0: 1, DMax: 1, VMax: 1},
		trial.WithName("bad"), trial.WithAlgorithm(failingAlgorithm{}))
	require.NoError(t, err)

	e, err := New(append(newTrials(t, "good"), bad), Config{Concurrency: 2})
	require.NoError(t, err)
	results, err := e.Run(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Nil(t, results)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))

	s := Summarize([]Result{
		{Groups: make([]fof.Group, 4), NonConverged: 1},
		{Groups: make([]fof.Group, 6), NonConverged: 1},
	})
	assert.Equal(t, 2, s.Trials)
	assert.InDelta(t, 5, s.GroupCountMean, 1e-12)
	assert.InDelta(t, 1.4142135623730951, s.GroupCountStdDev, 1e-12)
	assert.InDelta(t, 1, s.NonConvergedMean, 1e-12)
	assert.InDelta(t, 0, s.NonConvergedStdDev, 1e-12)
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for _, id := range []string{"x", "y", "z"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i <= 100; i++ {
				tr.Update(id, i, 100, i/2)
			}
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, "x", snap[0].TaskID)
	assert.Equal(t, TaskProgress{TaskID: "z", Assigned: 100, Total: 100, Groups: 50}, snap[2])
	assert.False(t, TaskProgress{}.Done())
}

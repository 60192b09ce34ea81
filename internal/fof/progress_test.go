package fof

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/galaxygroups/internal/monitoring"
)

// captureLogs redirects monitoring.Logf and monitoring.Debugf for the test.
func captureLogs(t *testing.T) (info, debug *[]string) {
	t.Helper()
	logf, debugf := monitoring.Logf, monitoring.Debugf
	t.Cleanup(func() { monitoring.Logf, monitoring.Debugf = logf, debugf })

	info, debug = &[]string{}, &[]string{}
	monitoring.Logf = func(format string, v ...interface{}) {
		*info = append(*info, fmt.Sprintf(format, v...))
	}
	monitoring.Debugf = func(format string, v ...interface{}) {
		*debug = append(*debug, fmt.Sprintf(format, v...))
	}
	return info, debug
}

func TestParseProgressMode(t *testing.T) {
	for _, s := range []string{"experiment", "single_trial", "debug"} {
		m, err := ParseProgressMode(s)
		require.NoError(t, err)
		assert.Equal(t, ProgressMode(s), m)
	}

	_, err := ParseProgressMode("verbose")
	assert.ErrorIs(t, err, ErrUnknownProgressMode)
}

func TestNewProgress(t *testing.T) {
	tracker := &recordingTracker{}

	p, err := NewProgress(ModeExperiment, tracker, "task-1")
	require.NoError(t, err)
	assert.Equal(t, ModeExperiment, p.Mode())
	assert.Equal(t, ExperimentProgress{Tracker: tracker, TaskID: "task-1"}, p)

	_, err = NewProgress(ModeExperiment, nil, "task-1")
	assert.ErrorIs(t, err, ErrMissingProgressTracker)
	_, err = NewProgress(ModeExperiment, tracker, "")
	assert.ErrorIs(t, err, ErrMissingProgressTracker)

	p, err = NewProgress(ModeSingleTrial, nil, "")
	require.NoError(t, err)
	assert.Equal(t, ModeSingleTrial, p.Mode())

	p, err = NewProgress(ModeDebug, nil, "")
	require.NoError(t, err)
	assert.Equal(t, ModeDebug, p.Mode())

	_, err = NewProgress("loud", nil, "")
	assert.ErrorIs(t, err, ErrUnknownProgressMode)

	assert.NoError(t, ValidateProgress(nil))
}

func TestExperimentProgress_ForwardsToTracker(t *testing.T) {
	tracker := &recordingTracker{}
	p := ExperimentProgress{Tracker: tracker, TaskID: "a"}

	p.Start(20)
	p.GroupFound(Group{Members: []int{1, 2}}, 2, 20, 1)
	p.GroupFound(Group{Members: []int{3}}, 3, 20, 2)
	p.Done(2, 20)

	assert.Equal(t, []int{0, 2, 3, 20}, tracker.assigned)
	assert.Equal(t, []int{0, 1, 2, 2}, tracker.groups)
	assert.Equal(t, []string{"a", "a", "a", "a"}, tracker.taskIDs)
}

func TestSingleTrialProgress_LogsDeciles(t *testing.T) {
	info, debug := captureLogs(t)
	p := SingleTrialProgress{}

	p.Start(100)
	assigned := 0
	for i := 0; i < 50; i++ {
		assigned += 2
		p.GroupFound(Group{Members: []int{2 * i, 2*i + 1}}, assigned, 100, i+1)
	}
	p.Done(50, 100)

	// Start, ten decile crossings, Done.
	require.Len(t, *info, 12)
	assert.Equal(t, "[FoF] Grouping 100 galaxies", (*info)[0])
	assert.Equal(t, "[FoF] 10/100 galaxies assigned (5 groups)", (*info)[1])
	assert.Equal(t, "[FoF] Found 50 groups in 100 galaxies", (*info)[11])
	assert.Empty(t, *debug)
}

func TestSingleTrialProgress_LargeGroupCrossesSeveralDeciles(t *testing.T) {
	info, _ := captureLogs(t)
	p := SingleTrialProgress{}

	members := make([]int, 35)
	p.GroupFound(Group{Members: members}, 35, 100, 1)
	p.GroupFound(Group{Members: []int{35}}, 36, 100, 2)
	assert.Equal(t, []string{"[FoF] 35/100 galaxies assigned (1 groups)"}, *info)
}

func TestSingleTrialProgress_SmallCatalogOnlyStartAndDone(t *testing.T) {
	info, _ := captureLogs(t)
	p := SingleTrialProgress{}

	p.Start(3)
	p.GroupFound(Group{Members: []int{0, 1, 2}}, 3, 3, 1)
	p.Done(1, 3)
	assert.Len(t, *info, 2)
}

func TestDebugProgress_LogsEveryGroup(t *testing.T) {
	info, debug := captureLogs(t)
	p := DebugProgress{}

	p.Start(4)
	p.GroupFound(Group{Members: []int{0, 1}, Seed: 1, Iterations: 2, Converged: true}, 2, 4, 1)
	p.GroupFound(Group{Members: []int{2, 3}, Seed: 3, Iterations: 100}, 4, 4, 2)
	p.Done(2, 4)

	require.Len(t, *debug, 4)
	assert.Equal(t, "[FoF] group 1: seed=1 members=2 iterations=2 converged=true (2/4 assigned)", (*debug)[1])
	assert.Contains(t, (*debug)[2], "converged=false")
	assert.Empty(t, *info)
}

package experiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/galaxygroups/internal/fof"
)

func resultOf(groups ...[]int) Result {
	r := Result{}
	for _, m := range groups {
		r.Groups = append(r.Groups, fof.Group{Members: m, Converged: true})
	}
	return r
}

func TestCoMembership(t *testing.T) {
	counts := CoMembership([]Result{
		resultOf([]int{0, 1, 2}, []int{3}),
		resultOf([]int{0, 1}, []int{2, 3}),
	})
	assert.Equal(t, map[[2]int]int{
		{0, 1}: 2,
		{0, 2}: 1,
		{1, 2}: 1,
		{2, 3}: 1,
	}, counts)
}

func TestIntegrateGroups(t *testing.T) {
	results := []Result{
		resultOf([]int{0, 1, 2}, []int{3, 4}, []int{5}),
		resultOf([]int{0, 1}, []int{2, 3, 4}, []int{5}),
		resultOf([]int{0, 1, 2}, []int{3}, []int{4}, []int{5}),
		resultOf([]int{0, 1, 2, 3, 4, 5}),
	}

	testCases := []struct {
		name   string
		cutoff float64
		want   [][]int
	}{
		{"always_together", 1, [][]int{{0, 1}, {2}, {3}, {4}, {5}}},
		{"three_quarters", 0.75, [][]int{{0, 1, 2}, {3, 4}, {5}}},
		{"half", 0.5, [][]int{{0, 1, 2, 3, 4}, {5}}},
		{"any_trial", 0.25, [][]int{{0, 1, 2, 3, 4, 5}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := IntegrateGroups(results, 6, tc.cutoff)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIntegrateGroups_Errors(t *testing.T) {
	results := []Result{resultOf([]int{0, 1})}

	for _, cutoff := range []float64{0, -0.5, 1.5} {
		_, err := IntegrateGroups(results, 2, cutoff)
		assert.ErrorIs(t, err, ErrInvalidCutoff)
	}

	_, err := IntegrateGroups(nil, 2, 0.5)
	assert.ErrorIs(t, err, ErrNoTrials)

	_, err = IntegrateGroups(results, 1, 0.5)
	assert.Error(t, err)
}

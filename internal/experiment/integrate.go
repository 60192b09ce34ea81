package experiment

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrInvalidCutoff is returned for a co-membership cutoff outside (0, 1].
var ErrInvalidCutoff = errors.New("cutoff must be in (0, 1]")

// CoMembership counts, for every pair of galaxies, the trials that put
// both in the same group. Keys are ordered pairs with a < b.
func CoMembership(results []Result) map[[2]int]int {
	counts := make(map[[2]int]int)
	for _, r := range results {
		for _, g := range r.Groups {
			for i, a := range g.Members {
				for _, b := range g.Members[i+1:] {
					key := [2]int{a, b}
					if a > b {
						key = [2]int{b, a}
					}
					counts[key]++
				}
			}
		}
	}
	return counts
}

// IntegrateGroups combines trial groupings over n galaxies. Two galaxies
// are linked when they share a group in at least cutoff of the trials; the
// integrated groups are the connected components of that graph, so every
// galaxy appears in exactly one group. Groups are sorted by smallest member.
func IntegrateGroups(results []Result, n int, cutoff float64) ([][]int, error) {
	if !(cutoff > 0 && cutoff <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidCutoff, cutoff)
	}
	if len(results) == 0 {
		return nil, ErrNoTrials
	}

	g := simple.NewUndirectedGraph()
	for id := 0; id < n; id++ {
		g.AddNode(simple.Node(id))
	}
	trials := float64(len(results))
	for pair, count := range CoMembership(results) {
		if pair[0] >= n || pair[1] >= n {
			return nil, fmt.Errorf("galaxy id %d out of range for %d galaxies", pair[1], n)
		}
		if float64(count)/trials >= cutoff {
			g.SetEdge(simple.Edge{F: simple.Node(pair[0]), T: simple.Node(pair[1])})
		}
	}

	components := topo.ConnectedComponents(g)
	groups := make([][]int, len(components))
	for i, c := range components {
		members := make([]int, len(c))
		for j, node := range c {
			members[j] = int(node.ID())
		}
		sort.Ints(members)
		groups[i] = members
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups, nil
}

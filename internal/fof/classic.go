package fof

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/banshee-data/galaxygroups/internal/cosmo"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
	"github.com/banshee-data/galaxygroups/internal/survey"
)

// FreeSet marks which galaxies may still be linked. The zero value treats
// every galaxy as free.
type FreeSet struct {
	checked []bool
}

// FreeFromChecked views the galaxies with checked[id] == false as free.
func FreeFromChecked(checked []bool) FreeSet {
	return FreeSet{checked: checked}
}

// Contains reports whether id is free.
func (f FreeSet) Contains(id int) bool {
	return f.checked == nil || !f.checked[id]
}

// ClassicFoF is the magnitude-adaptive Friends-of-Friends group finder. It
// holds no run state, so one instance may serve concurrent runs.
type ClassicFoF struct {
	survey  *survey.Survey
	args    Args
	opts    Options
	linking *LinkingLength
}

// New returns a ClassicFoF over s. The survey must carry vel and mag columns.
func New(s *survey.Survey, args Args, opts Options) (*ClassicFoF, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: survey is nil", ErrInvalidArgs)
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	for _, col := range []string{survey.ColVel, survey.ColMag} {
		if !s.Catalog().HasColumn(col) {
			return nil, fmt.Errorf("%w: %q", survey.ErrMissingColumn, col)
		}
	}
	opts = opts.WithDefaults()
	return &ClassicFoF{
		survey:  s,
		args:    args,
		opts:    opts,
		linking: NewLinkingLengthForSurvey(s, args, opts),
	}, nil
}

// Args returns the linking lengths.
func (c *ClassicFoF) Args() Args { return c.args }

// Options returns the effective optional arguments.
func (c *ClassicFoF) Options() Options { return c.opts }

// Survey returns the survey the finder is bound to.
func (c *ClassicFoF) Survey() *survey.Survey { return c.survey }

// LinkingLength returns the dynamic linking-length model.
func (c *ClassicFoF) LinkingLength() *LinkingLength { return c.linking }

// FindFriendsOfGalaxy returns the free friends of galaxy id, id itself
// included when it is free.
func (c *ClassicFoF) FindFriendsOfGalaxy(id int, free FreeSet) []int {
	s := c.survey
	return c.FindFriendsFromPoint(s.RA(id), s.Dec(id), s.Vel(id), free)
}

// FindFriendsFromPoint returns, in ascending order, the free galaxies within
// V0 of vel whose projected separation from (ra, dec) is strictly less than
// their pair's clipped linking length.
func (c *ClassicFoF) FindFriendsFromPoint(ra, dec, vel float64, free FreeSet) []int {
	s := c.survey
	h0 := s.H0()

	var friends []int
	for _, id := range s.VelocityWindow(vel, c.args.V0) {
		if !free.Contains(id) {
			continue
		}
		v := s.Vel(id)
		sep := cosmo.AngularSeparation(ra, dec, s.RA(id), s.Dec(id))
		if ProjectedSeparation(sep, vel, v, h0) < c.linking.Limit((vel+v)/2) {
			friends = append(friends, id)
		}
	}
	sort.Ints(friends)
	return friends
}

// RemoveOutlyingMembers keeps the members within DMax projected separation
// and VMax velocity of the members' centroid. Order is preserved.
func (c *ClassicFoF) RemoveOutlyingMembers(members []int) []int {
	if len(members) == 0 {
		return nil
	}
	s := c.survey
	h0 := s.H0()
	centre := ComputeCentroid(s, members)

	kept := make([]int, 0, len(members))
	for _, id := range members {
		v := s.Vel(id)
		sep := cosmo.AngularSeparation(centre.RA, centre.Dec, s.RA(id), s.Dec(id))
		if ProjectedSeparation(sep, centre.Vel, v, h0) <= c.args.DMax && math.Abs(v-centre.Vel) <= c.args.VMax {
			kept = append(kept, id)
		}
	}
	return kept
}

// FindGroup grows a group from seed by repeatedly adding the friends of
// every current member, pruning outliers after each pass, until the member
// set stops changing or MaxIterations passes have run. If pruning leaves
// nothing, the group is the seed alone.
func (c *ClassicFoF) FindGroup(seed int, free FreeSet) Group {
	after := c.FindFriendsOfGalaxy(seed, free)
	var before []int

	iterations := 0
	for !slices.Equal(after, before) && iterations < c.opts.MaxIterations {
		before = after

		seen := make(map[int]struct{}, len(before))
		candidates := make([]int, 0, len(before))
		for _, id := range before {
			for _, friend := range c.FindFriendsOfGalaxy(id, free) {
				if _, ok := seen[friend]; ok {
					continue
				}
				seen[friend] = struct{}{}
				candidates = append(candidates, friend)
			}
		}
		sort.Ints(candidates)

		after = c.RemoveOutlyingMembers(candidates)
		iterations++
	}

	g := Group{
		Members:    after,
		Seed:       seed,
		Iterations: iterations,
		Converged:  slices.Equal(after, before),
	}
	if len(g.Members) == 0 {
		g.Members = []int{seed}
	}
	return g
}

// Run partitions the whole survey into groups. Seeds are drawn uniformly
// from the unassigned galaxies with rng; a nil rng uses a randomly seeded
// generator. progress may be nil. The context is checked between groups and
// a cancelled run returns no groups.
func (c *ClassicFoF) Run(ctx context.Context, rng *rand.Rand, progress Progress) ([]Group, error) {
	if err := ValidateProgress(progress); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = SingleTrialProgress{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := c.survey.Len()
	checked := make([]bool, n)
	galaxiesLeft := unchecked(checked)
	var groups []Group

	progress.Start(n)
	for len(galaxiesLeft) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		seed := galaxiesLeft[rng.IntN(len(galaxiesLeft))]
		g := c.FindGroup(seed, FreeFromChecked(checked))
		if !g.Converged {
			monitoring.Warnf("[FoF] group from seed %d did not converge after %d iterations (%d members)",
				seed, g.Iterations, len(g.Members))
		}
		groups = append(groups, g)

		for _, id := range g.Members {
			checked[id] = true
		}
		galaxiesLeft = unchecked(checked)
		progress.GroupFound(g, n-len(galaxiesLeft), n, len(groups))
	}
	progress.Done(len(groups), n)
	return groups, nil
}

func unchecked(checked []bool) []int {
	left := make([]int, 0, len(checked))
	for id, done := range checked {
		if !done {
			left = append(left, id)
		}
	}
	return left
}

package fof

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/galaxygroups/internal/cosmo"
	"github.com/banshee-data/galaxygroups/internal/survey"
)

// Group is one set of linked galaxies. Members are sorted galaxy ids into
// the survey the group was found in; the survey itself is passed to any
// method that needs catalog values.
type Group struct {
	Members    []int `json:"members"`
	Seed       int   `json:"seed"`
	Iterations int   `json:"iterations"`
	// Converged is false when growth hit the iteration cap while the member
	// set was still changing.
	Converged bool `json:"converged"`
}

// Len returns the group's multiplicity.
func (g Group) Len() int { return len(g.Members) }

// Contains reports whether id is a member.
func (g Group) Contains(id int) bool {
	i := sort.SearchInts(g.Members, id)
	return i < len(g.Members) && g.Members[i] == id
}

// Centroid is a mean sky position and velocity.
type Centroid struct {
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
	Vel float64 `json:"vel"`
}

// ComputeCentroid returns the circular mean right ascension and the
// arithmetic mean declination and velocity of ids. RA wraps at 0/360, so a
// plain average of 359° and 1° would wrongly give 180°.
func ComputeCentroid(s *survey.Survey, ids []int) Centroid {
	if len(ids) == 0 {
		return Centroid{RA: math.NaN(), Dec: math.NaN(), Vel: math.NaN()}
	}
	ra := make([]float64, len(ids))
	dec := make([]float64, len(ids))
	vel := make([]float64, len(ids))
	for i, id := range ids {
		ra[i] = s.RA(id) * math.Pi / 180
		dec[i] = s.Dec(id)
		vel[i] = s.Vel(id)
	}
	return Centroid{
		RA:  cosmo.WrapDegrees(stat.CircularMean(ra, nil) * 180 / math.Pi),
		Dec: stat.Mean(dec, nil),
		Vel: stat.Mean(vel, nil),
	}
}

// Centroid returns the group's centroid in s.
func (g Group) Centroid(s *survey.Survey) Centroid {
	return ComputeCentroid(s, g.Members)
}

// Properties summarise a finished group.
type Properties struct {
	Multiplicity int `json:"multiplicity"`
	Centroid
	// VelocityDispersion is the sample standard deviation of member velocities, km/s.
	VelocityDispersion float64 `json:"velocity_dispersion"`
	// ProjectedRadius is the largest projected separation of a member from the centroid, Mpc.
	ProjectedRadius float64 `json:"projected_radius"`
}

// Properties computes the group's summary quantities in s.
func (g Group) Properties(s *survey.Survey) Properties {
	c := g.Centroid(s)
	p := Properties{Multiplicity: len(g.Members), Centroid: c}
	if len(g.Members) == 0 {
		return p
	}

	vel := make([]float64, len(g.Members))
	for i, id := range g.Members {
		vel[i] = s.Vel(id)
		sep := cosmo.AngularSeparation(c.RA, c.Dec, s.RA(id), s.Dec(id))
		p.ProjectedRadius = math.Max(p.ProjectedRadius, ProjectedSeparation(sep, c.Vel, vel[i], s.H0()))
	}
	if len(vel) > 1 {
		p.VelocityDispersion = stat.StdDev(vel, nil)
	}
	return p
}

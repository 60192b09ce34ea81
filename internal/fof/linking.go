package fof

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/galaxygroups/internal/survey"
)

// ProjectedSeparation converts an angular separation in degrees into the
// projected on-sky distance in Mpc for a pair at velocities v1 and v2.
func ProjectedSeparation(sepDeg, v1, v2, h0 float64) float64 {
	return math.Sin(sepDeg/2*math.Pi/180) * ((v1 + v2) / 2) / h0
}

// LinkingParams are the survey constants the dynamic linking length depends on.
type LinkingParams struct {
	D0               float64
	DMax             float64
	H0               float64
	ApparentMagLimit float64
	Schechter        survey.Schechter
	Integral         float64 // normalisation, survey.Survey.Integral
	MagnitudeFloor   float64 // bright bound of the per-pair integral
	Step             float64 // magnitude spacing of the cumulative table
	MaxMagnitude     float64 // faintest pair limit the table must cover
}

// LinkingLength maps a pair's mean velocity to its on-sky linking length.
// It is immutable once built and safe for concurrent use.
//
// The per-pair numerator is the Schechter function integrated from the
// magnitude floor to the pair's limit M12. Integrals are read from a
// cumulative trapezoid table over [MagnitudeFloor, MaxMagnitude], closing
// the final partial cell with one more trapezoid so the result equals a
// trapezoid rule whose nodes are the table grid plus M12 itself.
type LinkingLength struct {
	p   LinkingParams
	m   []float64 // grid magnitudes
	f   []float64 // Schechter function at m
	cum []float64 // cumulative integral at m
}

// NewLinkingLength builds the cumulative table for p.
func NewLinkingLength(p LinkingParams) *LinkingLength {
	if p.Step <= 0 {
		p.Step = DefaultIntegrationStep
	}
	l := &LinkingLength{p: p}

	n := 1
	if p.MaxMagnitude > p.MagnitudeFloor {
		n = int(math.Ceil((p.MaxMagnitude-p.MagnitudeFloor)/p.Step)) + 1
	}
	l.m = make([]float64, n)
	for i := range l.m {
		l.m[i] = p.MagnitudeFloor + float64(i)*p.Step
	}
	l.f = p.Schechter.EvalSlice(nil, l.m)

	// Per-cell trapezoid areas, accumulated.
	l.cum = make([]float64, n)
	for i := 1; i < n; i++ {
		l.cum[i] = (l.f[i-1] + l.f[i]) / 2 * p.Step
	}
	floats.CumSum(l.cum, l.cum)
	return l
}

// NewLinkingLengthForSurvey derives LinkingParams from s, args and opts. The
// table covers every pair limit reachable from the survey's slowest galaxy.
func NewLinkingLengthForSurvey(s *survey.Survey, args Args, opts Options) *LinkingLength {
	opts = opts.WithDefaults()
	params := s.Params()

	maxMag := s.AbsoluteMagLim()
	if vel, ok := s.Column(survey.ColVel); ok {
		minVel := math.Inf(1)
		for _, v := range vel {
			if v > 0 && v < minVel {
				minVel = v
			}
		}
		if !math.IsInf(minVel, 1) {
			maxMag = math.Max(maxMag, s.M12(minVel))
		}
	}

	return NewLinkingLength(LinkingParams{
		D0:               args.D0,
		DMax:             args.DMax,
		H0:               params.Cosmology.H0,
		ApparentMagLimit: params.ApparentMagLimit,
		Schechter:        params.Schechter,
		Integral:         s.Integral(),
		MagnitudeFloor:   opts.MagnitudeFloor,
		Step:             opts.IntegrationStep,
		MaxMagnitude:     maxMag,
	})
}

// Params returns the parameters the table was built from.
func (l *LinkingLength) Params() LinkingParams { return l.p }

// cumulative returns the integral of the Schechter function from the floor to m.
func (l *LinkingLength) cumulative(m float64) float64 {
	if !(m > l.p.MagnitudeFloor) {
		return 0
	}
	last := len(l.m) - 1
	if m >= l.m[last] {
		return l.cum[last] + l.p.Schechter.Integrate(l.m[last], m, l.p.Step)
	}
	k := int((m - l.p.MagnitudeFloor) / l.p.Step)
	if k > last {
		k = last
	}
	// Guard against rounding placing m just below grid[k].
	for k > 0 && l.m[k] > m {
		k--
	}
	return l.cum[k] + (l.f[k]+l.p.Schechter.Eval(m))/2*(m-l.m[k])
}

// Fraction returns the share of the survey's luminosity function visible to
// a pair at mean velocity vAvg.
func (l *LinkingLength) Fraction(vAvg float64) float64 {
	m12 := survey.M12(l.p.ApparentMagLimit, vAvg, l.p.H0)
	if math.IsNaN(m12) || math.IsInf(m12, 0) {
		return math.NaN()
	}
	return l.cumulative(m12) / l.p.Integral
}

// Limit returns the clipped linking length for a pair at mean velocity vAvg.
func (l *LinkingLength) Limit(vAvg float64) float64 {
	return l.fromFraction(l.Fraction(vAvg))
}

// Limits evaluates Limit for every mean velocity in vAvg.
func (l *LinkingLength) Limits(vAvg []float64) []float64 {
	out := make([]float64, len(vAvg))
	for i, v := range vAvg {
		out[i] = l.Limit(v)
	}
	return out
}

// Unclipped returns D0 * fraction^(-1/3) without applying DMax. Pairs that
// see none of the luminosity function return +Inf.
func (l *LinkingLength) Unclipped(vAvg float64) float64 {
	frac := l.Fraction(vAvg)
	if math.IsNaN(frac) {
		return math.NaN()
	}
	if frac <= 0 {
		return math.Inf(1)
	}
	return l.p.D0 * math.Pow(frac, -1.0/3)
}

func (l *LinkingLength) fromFraction(frac float64) float64 {
	if math.IsNaN(frac) || frac <= 0 {
		return l.p.DMax
	}
	d := l.p.D0 * math.Pow(frac, -1.0/3)
	if d > l.p.DMax {
		return l.p.DMax
	}
	return d
}

package survey

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

// Schechter holds the luminosity-function shape in absolute magnitudes.
type Schechter struct {
	Alpha   float64 `json:"alpha" yaml:"alpha"`       // faint-end slope
	MStar   float64 `json:"m_star" yaml:"m_star"`     // characteristic magnitude
	PhiStar float64 `json:"phi_star" yaml:"phi_star"` // normalisation
}

// Eval returns the galaxy number density per unit magnitude at absolute magnitude m.
func (s Schechter) Eval(m float64) float64 {
	x := math.Pow(10, 0.4*(s.MStar-m))
	return 0.4 * math.Ln10 * s.PhiStar * math.Pow(x, s.Alpha+1) * math.Exp(-x)
}

// EvalSlice evaluates the function at every magnitude in ms, writing into dst.
// If dst is nil a new slice is allocated. It returns dst.
func (s Schechter) EvalSlice(dst, ms []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(ms))
	}
	if len(dst) != len(ms) {
		panic("survey: slice length mismatch")
	}
	for i, m := range ms {
		dst[i] = s.Eval(m)
	}
	return dst
}

// Integrate returns the trapezoidal integral of the function over [lo, hi]
// using samples no further apart than step. Empty or inverted ranges give 0.
func (s Schechter) Integrate(lo, hi, step float64) float64 {
	if !(hi > lo) || step <= 0 {
		return 0
	}
	n := int(math.Ceil((hi-lo)/step)) + 1
	if n < 2 {
		n = 2
	}
	x := floats.Span(make([]float64, n), lo, hi)
	return integrate.Trapezoidal(x, s.EvalSlice(nil, x))
}

// Package testutil provides shared test utilities and fixtures.
//
// It centralises the synthetic galaxy catalogs and survey parameters used
// across the survey, fof, trial and experiment tests.
package testutil

import (
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banshee-data/galaxygroups/internal/cosmo"
	"github.com/banshee-data/galaxygroups/internal/survey"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}

// Galaxy is one synthetic catalog row.
type Galaxy struct {
	RA, Dec, Vel, Mag float64
}

// DefaultParams returns 2MRS-like survey parameters (K-band Schechter fit,
// H0=70) used throughout the tests.
func DefaultParams() survey.Params {
	return survey.Params{
		ApparentMagLimit: 11.75,
		FiducialVelocity: 1000,
		Schechter: survey.Schechter{
			Alpha:   -1.02,
			MStar:   -24.2,
			PhiStar: 0.0108,
		},
		Cosmology: cosmo.Cosmology{H0: 70, OmegaM: 0.3},
	}
}

// Columns converts rows into catalog columns with ra, dec, vel and mag set.
func Columns(galaxies []Galaxy) map[string][]float64 {
	cols := map[string][]float64{
		survey.ColRA:  make([]float64, len(galaxies)),
		survey.ColDec: make([]float64, len(galaxies)),
		survey.ColVel: make([]float64, len(galaxies)),
		survey.ColMag: make([]float64, len(galaxies)),
	}
	for i, g := range galaxies {
		cols[survey.ColRA][i] = g.RA
		cols[survey.ColDec][i] = g.Dec
		cols[survey.ColVel][i] = g.Vel
		cols[survey.ColMag][i] = g.Mag
	}
	return cols
}

// NewSurvey builds a Survey over galaxies with DefaultParams.
func NewSurvey(t testing.TB, galaxies []Galaxy) *survey.Survey {
	t.Helper()
	return NewSurveyWithParams(t, galaxies, DefaultParams())
}

// NewSurveyWithParams builds a Survey over galaxies with the given params.
func NewSurveyWithParams(t testing.TB, galaxies []Galaxy, params survey.Params) *survey.Survey {
	t.Helper()
	catalog, err := survey.NewCatalog(Columns(galaxies))
	AssertNoError(t, err)
	s, err := survey.New(catalog, params)
	AssertNoError(t, err)
	return s
}

// Cluster scatters n galaxies uniformly within spreadDeg of (ra, dec) on the
// sky and within spreadVel of vel along the line of sight.
func Cluster(rng *rand.Rand, n int, ra, dec, vel, spreadDeg, spreadVel float64) []Galaxy {
	out := make([]Galaxy, n)
	for i := range out {
		out[i] = Galaxy{
			RA:  cosmo.WrapDegrees(ra + (2*rng.Float64()-1)*spreadDeg),
			Dec: dec + (2*rng.Float64()-1)*spreadDeg,
			Vel: vel + (2*rng.Float64()-1)*spreadVel,
			Mag: 10,
		}
	}
	return out
}

// TwoClusters returns ten galaxies in two tight clusters of five, far apart
// in both sky position and velocity. Ids 0..4 form the first cluster and
// 5..9 the second.
func TwoClusters() []Galaxy {
	rng := rand.New(rand.NewPCG(7, 11))
	a := Cluster(rng, 5, 150, 10, 3000, 0.05, 40)
	b := Cluster(rng, 5, 200, -25, 9000, 0.02, 40)
	return append(a, b...)
}

// DecOffsetForSeparation returns the declination offset in degrees that puts
// two galaxies on the same meridian at the given projected separation in
// Mpc, both at velocity vel.
func DecOffsetForSeparation(sepMpc, vel, h0 float64) float64 {
	return 2 * math.Asin(sepMpc*h0/vel) * 180 / math.Pi
}

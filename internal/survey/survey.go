package survey

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/banshee-data/galaxygroups/internal/cosmo"
)

const (
	// IntegralLowerMag is the bright bound of the normalisation integral.
	IntegralLowerMag = -100.0
	// IntegralStep is the magnitude spacing used for the normalisation integral.
	IntegralStep = 0.001
)

var (
	// ErrInvalidParams is returned for unusable survey parameters.
	ErrInvalidParams = errors.New("invalid survey parameters")
	// ErrNonPositiveIntegral is returned when the luminosity-function
	// normalisation is not a positive finite number.
	ErrNonPositiveIntegral = errors.New("luminosity function integral must be positive")
)

// Params describe the observational and cosmological context of a survey.
type Params struct {
	ApparentMagLimit float64         // faint apparent-magnitude limit
	FiducialVelocity float64         // km/s
	Schechter        Schechter       // luminosity function
	Cosmology        cosmo.Cosmology // H0 and OmegaM
}

// Survey is a galaxy catalog plus the quantities derived from its parameters.
type Survey struct {
	params    Params
	catalog   *Catalog
	ids       []int
	absMagLim float64
	integral  float64

	// velocity index, ids sorted by velocity
	velOrder  []int
	velSorted []float64
}

// New builds a Survey over catalog. The catalog must contain ra and dec;
// vel and mag may be derived later with ConvertZIntoCZ and MakeMagColumn.
func New(catalog *Catalog, params Params) (*Survey, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, fmt.Errorf("%w: catalog is empty", ErrInvalidParams)
	}
	if err := catalog.require(ColRA, ColDec); err != nil {
		return nil, err
	}
	if err := params.Cosmology.Validate(); err != nil {
		return nil, err
	}
	if !(params.FiducialVelocity > 0) {
		return nil, fmt.Errorf("%w: fiducial velocity must be positive, got %v", ErrInvalidParams, params.FiducialVelocity)
	}
	if math.IsNaN(params.ApparentMagLimit) || math.IsInf(params.ApparentMagLimit, 0) {
		return nil, fmt.Errorf("%w: apparent magnitude limit must be finite", ErrInvalidParams)
	}

	s := &Survey{
		params:  params,
		catalog: catalog,
	}
	s.absMagLim = AbsoluteMagLim(params.ApparentMagLimit, params.FiducialVelocity, params.Cosmology.H0)
	s.integral = params.Schechter.Integrate(IntegralLowerMag, s.absMagLim, IntegralStep)
	if !(s.integral > 0) || math.IsInf(s.integral, 0) {
		return nil, fmt.Errorf("%w: got %v for alpha=%v m_star=%v phi_star=%v abs_mag_lim=%v",
			ErrNonPositiveIntegral, s.integral, params.Schechter.Alpha, params.Schechter.MStar,
			params.Schechter.PhiStar, s.absMagLim)
	}

	s.ids = make([]int, catalog.Len())
	for i := range s.ids {
		s.ids[i] = i
	}
	s.rebuildVelocityIndex()
	return s, nil
}

// AbsoluteMagLim converts an apparent-magnitude limit into the absolute
// magnitude limit at the fiducial velocity.
func AbsoluteMagLim(apparentLimit, fiducialVelocity, h0 float64) float64 {
	return apparentLimit - 25 - 5*math.Log10(fiducialVelocity/h0)
}

// Params returns the survey parameters.
func (s *Survey) Params() Params { return s.params }

// H0 returns the Hubble constant in km/s/Mpc.
func (s *Survey) H0() float64 { return s.params.Cosmology.H0 }

// AbsoluteMagLim returns the cached absolute-magnitude limit.
func (s *Survey) AbsoluteMagLim() float64 { return s.absMagLim }

// Integral returns the cached luminosity-function normalisation over
// (IntegralLowerMag, AbsoluteMagLim).
func (s *Survey) Integral() float64 { return s.integral }

// Len returns the number of galaxies.
func (s *Survey) Len() int { return s.catalog.Len() }

// IDs returns every galaxy id. The slice is shared; callers must not modify it.
func (s *Survey) IDs() []int { return s.ids }

// Catalog returns the underlying catalog. Columns are written through
// SetColumn.
func (s *Survey) Catalog() *Catalog { return s.catalog }

// Column returns the named catalog column.
func (s *Survey) Column(name string) ([]float64, bool) { return s.catalog.Column(name) }

// RA returns the right ascension of galaxy id in degrees.
func (s *Survey) RA(id int) float64 { return s.catalog.columns[ColRA][id] }

// Dec returns the declination of galaxy id in degrees.
func (s *Survey) Dec(id int) float64 { return s.catalog.columns[ColDec][id] }

// Vel returns the velocity of galaxy id in km/s. It panics if no vel column exists.
func (s *Survey) Vel(id int) float64 { return s.catalog.columns[ColVel][id] }

// M12 returns the absolute-magnitude detection limit for a pair whose mean
// velocity is vAvg.
func (s *Survey) M12(vAvg float64) float64 {
	return M12(s.params.ApparentMagLimit, vAvg, s.params.Cosmology.H0)
}

// M12Slice evaluates M12 for every velocity in vAvg.
func (s *Survey) M12Slice(vAvg []float64) []float64 {
	out := make([]float64, len(vAvg))
	for i, v := range vAvg {
		out[i] = s.M12(v)
	}
	return out
}

// M12 is the magnitude limit relation: apparentLimit - 25 - 5*log10(vAvg/h0).
func M12(apparentLimit, vAvg, h0 float64) float64 {
	return apparentLimit - 25 - 5*math.Log10(vAvg/h0)
}

// ConvertZIntoCZ writes the vel column as zColumn times the speed of light.
func (s *Survey) ConvertZIntoCZ(zColumn string) error {
	z, ok := s.catalog.Column(zColumn)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingColumn, zColumn)
	}
	vel := make([]float64, len(z))
	for i, v := range z {
		vel[i] = v * cosmo.SpeedOfLight
	}
	if err := s.catalog.setColumn(ColVel, vel); err != nil {
		return err
	}
	s.rebuildVelocityIndex()
	return nil
}

// MakeMagColumn copies source into the canonical mag column.
func (s *Survey) MakeMagColumn(source string) error {
	col, ok := s.catalog.Column(source)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingColumn, source)
	}
	return s.catalog.setColumn(ColMag, col)
}

// SetColumn adds or overwrites a catalog column. Writing the vel column
// rebuilds the velocity index.
func (s *Survey) SetColumn(name string, values []float64) error {
	if err := s.catalog.setColumn(name, values); err != nil {
		return err
	}
	if name == ColVel {
		s.rebuildVelocityIndex()
	}
	return nil
}

// SetVelocity overwrites the vel column directly.
func (s *Survey) SetVelocity(vel []float64) error {
	return s.SetColumn(ColVel, vel)
}

// AddPositionalInformation derives luminosity distance, galactic
// coordinates and galactic Cartesian positions from velColumn.
func (s *Survey) AddPositionalInformation(velColumn string) error {
	vel, ok := s.catalog.Column(velColumn)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingColumn, velColumn)
	}
	ra := s.catalog.columns[ColRA]
	dec := s.catalog.columns[ColDec]

	n := len(vel)
	dist := make([]float64, n)
	gl := make([]float64, n)
	gb := make([]float64, n)
	x := make([]float64, n)
	y := make([]float64, n)
	z := make([]float64, n)
	for i := range vel {
		dist[i] = s.params.Cosmology.LuminosityDistance(vel[i] / cosmo.SpeedOfLight)
		gl[i], gb[i] = cosmo.EquatorialToGalactic(ra[i], dec[i])
		x[i], y[i], z[i] = cosmo.SphericalToCartesian(gl[i], gb[i], dist[i])
	}

	for _, col := range []struct {
		name   string
		values []float64
	}{
		{ColLumDist, dist},
		{ColGalacticL, gl},
		{ColGalacticB, gb},
		{ColX, x},
		{ColY, y},
		{ColZ, z},
	} {
		if err := s.catalog.setColumn(col.name, col.values); err != nil {
			return err
		}
	}
	return nil
}

// VelocityWindow returns the ids whose velocity lies within halfWidth of v,
// inclusive, in increasing velocity order. It returns nil without a vel column.
func (s *Survey) VelocityWindow(v, halfWidth float64) []int {
	if len(s.velSorted) == 0 {
		return nil
	}
	lo := sort.SearchFloat64s(s.velSorted, v-halfWidth)
	hi := sort.Search(len(s.velSorted), func(i int) bool {
		return s.velSorted[i] > v+halfWidth
	})
	if hi <= lo {
		return nil
	}
	return s.velOrder[lo:hi]
}

func (s *Survey) rebuildVelocityIndex() {
	vel, ok := s.catalog.Column(ColVel)
	if !ok {
		s.velOrder, s.velSorted = nil, nil
		return
	}
	order := make([]int, len(vel))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return vel[order[a]] < vel[order[b]]
	})
	sorted := make([]float64, len(vel))
	for i, id := range order {
		sorted[i] = vel[id]
	}
	s.velOrder, s.velSorted = order, sorted
}

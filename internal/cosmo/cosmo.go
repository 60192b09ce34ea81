// Package cosmo provides the small amount of sky geometry and flat ΛCDM
// cosmology consumed by the group finder: angular separations, the
// equatorial → galactic rotation and luminosity distances.
package cosmo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
)

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

// distanceQuadPoints is the Gauss-Legendre order used for comoving distances.
const distanceQuadPoints = 64

// ErrInvalidCosmology is returned by Validate for unusable parameters.
var ErrInvalidCosmology = errors.New("invalid cosmology")

// Cosmology is a flat ΛCDM model.
type Cosmology struct {
	H0     float64 `json:"h0" yaml:"h0"`           // Hubble constant, km/s/Mpc
	OmegaM float64 `json:"omega_m" yaml:"omega_m"` // matter density at z=0
}

// Validate checks that H0 is positive and OmegaM lies in [0, 1].
func (c Cosmology) Validate() error {
	if !(c.H0 > 0) || math.IsInf(c.H0, 0) {
		return fmt.Errorf("%w: h0 must be positive, got %v", ErrInvalidCosmology, c.H0)
	}
	if c.OmegaM < 0 || c.OmegaM > 1 || math.IsNaN(c.OmegaM) {
		return fmt.Errorf("%w: omega_m must be between 0 and 1, got %v", ErrInvalidCosmology, c.OmegaM)
	}
	return nil
}

// HubbleDistance is c/H0 in Mpc.
func (c Cosmology) HubbleDistance() float64 {
	return SpeedOfLight / c.H0
}

// efunc is the dimensionless Hubble parameter E(z) for a flat universe.
func (c Cosmology) efunc(z float64) float64 {
	zp1 := 1 + z
	return math.Sqrt(c.OmegaM*zp1*zp1*zp1 + (1 - c.OmegaM))
}

// ComovingDistance returns the line-of-sight comoving distance to redshift z
// in Mpc. Non-positive redshifts map to zero.
func (c Cosmology) ComovingDistance(z float64) float64 {
	if z <= 0 {
		return 0
	}
	integral := quad.Fixed(func(x float64) float64 {
		return 1 / c.efunc(x)
	}, 0, z, distanceQuadPoints, nil, 0)
	return c.HubbleDistance() * integral
}

// LuminosityDistance returns (1+z) times the comoving distance, in Mpc.
func (c Cosmology) LuminosityDistance(z float64) float64 {
	return (1 + z) * c.ComovingDistance(z)
}

// icrsToGalactic rotates J2000 equatorial unit vectors into the galactic frame.
var icrsToGalactic = mat.NewDense(3, 3, []float64{
	-0.0548755604162154, -0.8734370902348850, -0.4838350155487132,
	+0.4941094278755837, -0.4448296299600112, +0.7469822444972189,
	-0.8676661490190047, -0.1980763734312015, +0.4559837761750669,
})

// EquatorialToGalactic converts J2000 right ascension and declination into
// galactic longitude and latitude. All angles are in degrees; l is in [0, 360).
func EquatorialToGalactic(ra, dec float64) (l, b float64) {
	eq := mat.NewVecDense(3, nil)
	x, y, z := SphericalToCartesian(ra, dec, 1)
	eq.SetVec(0, x)
	eq.SetVec(1, y)
	eq.SetVec(2, z)

	var gal mat.VecDense
	gal.MulVec(icrsToGalactic, eq)

	gz := math.Max(-1, math.Min(1, gal.AtVec(2)))
	l = WrapDegrees(rad2deg(math.Atan2(gal.AtVec(1), gal.AtVec(0))))
	b = rad2deg(math.Asin(gz))
	return l, b
}

// SphericalToCartesian converts a longitude/latitude pair in degrees at
// radius r into Cartesian coordinates.
func SphericalToCartesian(lon, lat, r float64) (x, y, z float64) {
	lonRad := deg2rad(lon)
	latRad := deg2rad(lat)
	cosLat := math.Cos(latRad)
	return r * cosLat * math.Cos(lonRad), r * cosLat * math.Sin(lonRad), r * math.Sin(latRad)
}

// AngularSeparation returns the great-circle separation between two sky
// positions in degrees using the Vincenty formula, which stays accurate at
// both tiny and antipodal separations.
func AngularSeparation(ra1, dec1, ra2, dec2 float64) float64 {
	lon1, lat1 := deg2rad(ra1), deg2rad(dec1)
	lon2, lat2 := deg2rad(ra2), deg2rad(dec2)

	sdlon, cdlon := math.Sincos(lon2 - lon1)
	slat1, clat1 := math.Sincos(lat1)
	slat2, clat2 := math.Sincos(lat2)

	num1 := clat2 * sdlon
	num2 := clat1*slat2 - slat1*clat2*cdlon
	denom := slat1*slat2 + clat1*clat2*cdlon

	return rad2deg(math.Atan2(math.Hypot(num1, num2), denom))
}

// WrapDegrees maps an angle into [0, 360).
func WrapDegrees(x float64) float64 {
	w := math.Mod(x, 360)
	if w < 0 {
		w += 360
	}
	if w >= 360 {
		w = 0
	}
	return w
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

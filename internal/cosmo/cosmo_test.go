package cosmo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosmologyValidate(t *testing.T) {
	testCases := []struct {
		name      string
		cosmo     Cosmology
		expectErr bool
	}{
		{"planck_like", Cosmology{H0: 70, OmegaM: 0.3}, false},
		{"empty_universe", Cosmology{H0: 100, OmegaM: 0}, false},
		{"zero_h0", Cosmology{H0: 0, OmegaM: 0.3}, true},
		{"negative_h0", Cosmology{H0: -70, OmegaM: 0.3}, true},
		{"omega_above_one", Cosmology{H0: 70, OmegaM: 1.5}, true},
		{"nan_omega", Cosmology{H0: 70, OmegaM: math.NaN()}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cosmo.Validate()
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidCosmology)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLuminosityDistance(t *testing.T) {
	c := Cosmology{H0: 70, OmegaM: 0.3}

	assert.Equal(t, 0.0, c.LuminosityDistance(0))
	assert.Equal(t, 0.0, c.LuminosityDistance(-0.001))

	// At low redshift d_L ≈ cz/H0.
	z := 0.001
	assert.InDelta(t, SpeedOfLight*z/70, c.LuminosityDistance(z), 0.01)

	// Reference value for z=0.1 in a flat H0=70, Om=0.3 universe is ~460 Mpc.
	assert.InDelta(t, 460.0, c.LuminosityDistance(0.1), 2.0)

	// Empty universe (E(z)=1 for OmegaM=0 in flat ΛCDM) has d_C = cz/H0 exactly.
	flat := Cosmology{H0: 100, OmegaM: 0}
	assert.InDelta(t, SpeedOfLight*0.05/100, flat.ComovingDistance(0.05), 1e-9)
}

func TestEquatorialToGalactic(t *testing.T) {
	testCases := []struct {
		name    string
		ra, dec float64
		l, b    float64
	}{
		{"north_galactic_pole", 192.85948, 27.12825, math.NaN(), 90},
		{"galactic_centre", 266.40510, -28.936175, 0, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			l, b := EquatorialToGalactic(tc.ra, tc.dec)
			assert.InDelta(t, tc.b, b, 0.01)
			if !math.IsNaN(tc.l) {
				dl := math.Min(math.Abs(l-tc.l), 360-math.Abs(l-tc.l))
				assert.Less(t, dl, 0.01)
			}
			assert.GreaterOrEqual(t, l, 0.0)
			assert.Less(t, l, 360.0)
		})
	}
}

func TestSphericalToCartesian(t *testing.T) {
	x, y, z := SphericalToCartesian(90, 0, 2)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 2, y, 1e-12)
	assert.InDelta(t, 0, z, 1e-12)

	x, y, z = SphericalToCartesian(0, 90, 1)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)
	assert.InDelta(t, 1, z, 1e-12)
}

func TestAngularSeparation(t *testing.T) {
	testCases := []struct {
		name                 string
		ra1, dec1, ra2, dec2 float64
		expected, tolerance  float64
	}{
		{"identical", 10, 10, 10, 10, 0, 1e-12},
		{"along_equator", 0, 0, 1, 0, 1, 1e-9},
		{"across_zero_ra", 359.5, 0, 0.5, 0, 1, 1e-9},
		{"pole_to_equator", 0, 90, 123, 0, 90, 1e-9},
		{"antipodal", 0, 0, 180, 0, 180, 1e-9},
		{"tiny", 150, 2, 150, 2.0001, 0.0001, 1e-10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := AngularSeparation(tc.ra1, tc.dec1, tc.ra2, tc.dec2)
			assert.InDelta(t, tc.expected, got, tc.tolerance)
		})
	}
}

func TestWrapDegrees(t *testing.T) {
	for in, want := range map[float64]float64{
		0:    0,
		360:  0,
		-1:   359,
		725:  5,
		-360: 0,
	} {
		got := WrapDegrees(in)
		require.InDelta(t, want, got, 1e-9, "WrapDegrees(%v)", in)
	}
}

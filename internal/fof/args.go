package fof

import (
	"errors"
	"fmt"
	"math"
)

// Defaults for Options fields left at zero.
const (
	DefaultMaxIterations   = 100
	DefaultMagnitudeFloor  = -32.0
	DefaultIntegrationStep = 0.01
)

// ErrInvalidArgs is returned when linking lengths are unusable.
var ErrInvalidArgs = errors.New("invalid fof arguments")

// Args are the linking lengths of one trial.
type Args struct {
	D0   float64 `json:"d_0" yaml:"d_0"`     // on-sky linking length at the fiducial velocity, Mpc
	V0   float64 `json:"v_0" yaml:"v_0"`     // line-of-sight linking length, km/s
	DMax float64 `json:"d_max" yaml:"d_max"` // maximum projected extent from the group centroid, Mpc
	VMax float64 `json:"v_max" yaml:"v_max"` // maximum velocity offset from the group centroid, km/s
}

// Validate checks that every linking length is positive and finite.
func (a Args) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"d_0", a.D0},
		{"v_0", a.V0},
		{"d_max", a.DMax},
		{"v_max", a.VMax},
	} {
		if !(f.value > 0) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidArgs, f.name, f.value)
		}
	}
	return nil
}

// Options are the optional algorithm arguments. Zero fields take the
// package defaults. A MagnitudeFloor of 0 therefore means
// DefaultMagnitudeFloor, not a floor at magnitude 0; the floor is the bright
// bound of the luminosity integral and is always negative in practice.
type Options struct {
	MaxIterations   int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	MagnitudeFloor  float64 `json:"magnitude_floor,omitempty" yaml:"magnitude_floor,omitempty"`
	IntegrationStep float64 `json:"integration_step,omitempty" yaml:"integration_step,omitempty"`
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		MaxIterations:   DefaultMaxIterations,
		MagnitudeFloor:  DefaultMagnitudeFloor,
		IntegrationStep: DefaultIntegrationStep,
	}
}

// WithDefaults fills zero fields from DefaultOptions.
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.MagnitudeFloor == 0 {
		o.MagnitudeFloor = d.MagnitudeFloor
	}
	if o.IntegrationStep <= 0 {
		o.IntegrationStep = d.IntegrationStep
	}
	return o
}

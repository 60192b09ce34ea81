// Package config loads FoF run configuration from JSON or YAML files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/banshee-data/galaxygroups/internal/cosmo"
	"github.com/banshee-data/galaxygroups/internal/fof"
	"github.com/banshee-data/galaxygroups/internal/survey"
	"github.com/banshee-data/galaxygroups/internal/trial"
)

// DefaultCutoff is the co-membership fraction used when none is configured.
const DefaultCutoff = 0.5

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// RunConfig is the root configuration of a run or experiment.
type RunConfig struct {
	Survey     SurveyConfig     `json:"survey" yaml:"survey"`
	Trials     []TrialConfig    `json:"trials" yaml:"trials" validate:"min=1,dive"`
	Experiment ExperimentConfig `json:"experiment" yaml:"experiment"`
	// Database is an optional sqlite path results are stored in.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

// SurveyConfig holds the survey and luminosity function parameters.
type SurveyConfig struct {
	// ApparentMagLimit and MStar are pointers so an explicit 0 is accepted
	// while a missing key is still rejected.
	ApparentMagLimit *float64 `json:"apparent_mag_limit" yaml:"apparent_mag_limit" validate:"required"`
	FiducialVelocity float64  `json:"fiducial_velocity" yaml:"fiducial_velocity" validate:"gt=0"`
	H0               float64  `json:"h0" yaml:"h0" validate:"gt=0"`
	OmegaM           float64  `json:"omega_m" yaml:"omega_m" validate:"gte=0,lte=1"`
	Alpha            float64  `json:"alpha" yaml:"alpha"`
	MStar            *float64 `json:"m_star" yaml:"m_star" validate:"required"`
	PhiStar          float64  `json:"phi_star" yaml:"phi_star" validate:"gt=0"`

	// RedshiftColumn, when set, is converted into the vel column.
	RedshiftColumn string `json:"redshift_column,omitempty" yaml:"redshift_column,omitempty"`
	// MagnitudeColumn, when set, is copied into the mag column.
	MagnitudeColumn string `json:"magnitude_column,omitempty" yaml:"magnitude_column,omitempty"`
	// AddPositions derives distance, galactic and cartesian columns.
	AddPositions bool `json:"add_positions,omitempty" yaml:"add_positions,omitempty"`
}

// TrialConfig is one set of linking lengths. MagnitudeFloor must be
// negative; 0 or unset selects fof.DefaultMagnitudeFloor.
type TrialConfig struct {
	Name          string  `json:"name,omitempty" yaml:"name,omitempty"`
	AlgorithmType string  `json:"algorithm_type,omitempty" yaml:"algorithm_type,omitempty" validate:"omitempty,oneof=classic"`
	D0            float64 `json:"d_0" yaml:"d_0" validate:"gt=0"`
	V0            float64 `json:"v_0" yaml:"v_0" validate:"gt=0"`
	DMax          float64 `json:"d_max" yaml:"d_max" validate:"gt=0"`
	VMax          float64 `json:"v_max" yaml:"v_max" validate:"gt=0"`

	MaxIterations   int     `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty" validate:"gte=0"`
	MagnitudeFloor  float64 `json:"magnitude_floor,omitempty" yaml:"magnitude_floor,omitempty" validate:"omitempty,lt=0"`
	IntegrationStep float64 `json:"integration_step,omitempty" yaml:"integration_step,omitempty" validate:"gte=0,lte=1"`
}

// ExperimentConfig controls multi-trial runs.
type ExperimentConfig struct {
	Seed        uint64  `json:"seed" yaml:"seed"`
	Concurrency int     `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"gte=0"`
	Cutoff      float64 `json:"cutoff,omitempty" yaml:"cutoff,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// Load reads a RunConfig from a .json, .yaml or .yml file and validates it.
// Unknown keys are rejected.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg RunConfig
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key rather than the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks field ranges and that trial names are unique.
func (c *RunConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	seen := make(map[string]bool, len(c.Trials))
	for i, t := range c.Trials {
		if t.Name == "" {
			continue
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: trials[%d].name %q is not unique", ErrInvalidConfig, i, t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	// Drop the root type from the namespace: RunConfig.trials[0].d_0 -> trials[0].d_0
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Params converts the survey section into survey parameters.
func (sc SurveyConfig) Params() survey.Params {
	return survey.Params{
		ApparentMagLimit: deref(sc.ApparentMagLimit),
		FiducialVelocity: sc.FiducialVelocity,
		Schechter: survey.Schechter{
			Alpha:   sc.Alpha,
			MStar:   deref(sc.MStar),
			PhiStar: sc.PhiStar,
		},
		Cosmology: cosmo.Cosmology{H0: sc.H0, OmegaM: sc.OmegaM},
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Prepare derives the vel and mag columns, and optionally the positional
// columns, on s as configured.
func (sc SurveyConfig) Prepare(s *survey.Survey) error {
	if sc.RedshiftColumn != "" {
		if err := s.ConvertZIntoCZ(sc.RedshiftColumn); err != nil {
			return err
		}
	}
	if sc.MagnitudeColumn != "" {
		if err := s.MakeMagColumn(sc.MagnitudeColumn); err != nil {
			return err
		}
	}
	if sc.AddPositions {
		if err := s.AddPositionalInformation(survey.ColVel); err != nil {
			return err
		}
	}
	return nil
}

// Args returns the trial's linking lengths.
func (t TrialConfig) Args() fof.Args {
	return fof.Args{D0: t.D0, V0: t.V0, DMax: t.DMax, VMax: t.VMax}
}

// Options returns the trial's optional algorithm arguments. Zero values
// fall back to the fof defaults.
func (t TrialConfig) Options() fof.Options {
	return fof.Options{
		MaxIterations:   t.MaxIterations,
		MagnitudeFloor:  t.MagnitudeFloor,
		IntegrationStep: t.IntegrationStep,
	}.WithDefaults()
}

// TrialOptions returns the trial constructor options for this config.
func (t TrialConfig) TrialOptions() []trial.Option {
	opts := []trial.Option{trial.WithOptionalArgs(t.Options())}
	if t.Name != "" {
		opts = append(opts, trial.WithName(t.Name))
	}
	if t.AlgorithmType != "" {
		opts = append(opts, trial.WithAlgorithmType(t.AlgorithmType))
	}
	return opts
}

// NewTrials builds every configured trial over s.
func (c *RunConfig) NewTrials(s *survey.Survey) ([]*trial.Trial, error) {
	out := make([]*trial.Trial, 0, len(c.Trials))
	for _, tc := range c.Trials {
		t, err := trial.New(s, tc.Args(), tc.TrialOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetCutoff returns the experiment co-membership cutoff or DefaultCutoff.
func (e ExperimentConfig) GetCutoff() float64 {
	if e.Cutoff == 0 {
		return DefaultCutoff
	}
	return e.Cutoff
}

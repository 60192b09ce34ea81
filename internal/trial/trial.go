// Package trial binds one set of FoF linking lengths to a survey and runs
// the group finder with it.
package trial

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/banshee-data/galaxygroups/internal/fof"
	"github.com/banshee-data/galaxygroups/internal/survey"
)

// AlgorithmClassic is the only supported algorithm type.
const AlgorithmClassic = "classic"

// ErrUnknownAlgorithm is returned by New for an algorithm type outside the
// allow-list.
var ErrUnknownAlgorithm = errors.New("unknown algorithm type")

// Algorithm is a group finder a trial can run. *fof.ClassicFoF satisfies it.
type Algorithm interface {
	Run(ctx context.Context, rng *rand.Rand, progress fof.Progress) ([]fof.Group, error)
}

// Settings describe a trial for logs and persisted results.
type Settings struct {
	Name          string      `json:"name"`
	AlgorithmType string      `json:"algorithm_type"`
	Args          fof.Args    `json:"args"`
	Options       fof.Options `json:"options"`
}

// Trial is one FoF configuration bound to a survey. It keeps no run state,
// so Run may be called repeatedly and concurrently.
type Trial struct {
	name          string
	algorithmType string
	args          fof.Args
	opts          fof.Options
	algorithm     Algorithm
}

// Option configures a Trial.
type Option func(*Trial)

// WithName overrides the generated trial name.
func WithName(name string) Option {
	return func(t *Trial) { t.name = name }
}

// WithAlgorithmType selects the algorithm by name.
func WithAlgorithmType(algorithmType string) Option {
	return func(t *Trial) { t.algorithmType = algorithmType }
}

// WithAlgorithm injects a prebuilt algorithm instead of constructing one.
func WithAlgorithm(a Algorithm) Option {
	return func(t *Trial) { t.algorithm = a }
}

// WithOptionalArgs sets the algorithm's optional arguments.
func WithOptionalArgs(opts fof.Options) Option {
	return func(t *Trial) { t.opts = opts }
}

// New validates the configuration and binds the algorithm to s. Errors are
// reported here, before any run work.
func New(s *survey.Survey, args fof.Args, options ...Option) (*Trial, error) {
	t := &Trial{
		algorithmType: AlgorithmClassic,
		args:          args,
	}
	for _, o := range options {
		o(t)
	}
	if t.name == "" {
		t.name = "trial-" + uuid.NewString()
	}
	if t.algorithmType != AlgorithmClassic {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownAlgorithm, t.algorithmType, AlgorithmClassic)
	}
	t.opts = t.opts.WithDefaults()

	if t.algorithm == nil {
		classic, err := fof.New(s, args, t.opts)
		if err != nil {
			return nil, fmt.Errorf("trial %s: %w", t.name, err)
		}
		t.algorithm = classic
	}
	return t, nil
}

// Name returns the trial's name.
func (t *Trial) Name() string { return t.name }

// Settings returns a copy of the trial's configuration.
func (t *Trial) Settings() Settings {
	return Settings{
		Name:          t.name,
		AlgorithmType: t.algorithmType,
		Args:          t.args,
		Options:       t.opts,
	}
}

// Algorithm returns the bound algorithm.
func (t *Trial) Algorithm() Algorithm { return t.algorithm }

// Run executes the algorithm once over the whole survey.
func (t *Trial) Run(ctx context.Context, rng *rand.Rand, progress fof.Progress) ([]fof.Group, error) {
	if err := fof.ValidateProgress(progress); err != nil {
		return nil, fmt.Errorf("trial %s: %w", t.name, err)
	}
	return t.algorithm.Run(ctx, rng, progress)
}

// Seeded returns the generator used for reproducible runs.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

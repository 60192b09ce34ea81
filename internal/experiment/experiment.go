// Package experiment runs several FoF trials concurrently over one survey
// and combines their groupings.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/galaxygroups/internal/fof"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
	"github.com/banshee-data/galaxygroups/internal/trial"
)

var (
	// ErrNoTrials is returned when an experiment has nothing to run.
	ErrNoTrials = errors.New("experiment has no trials")
	// ErrDuplicateTrial is returned when two trials share a name, which
	// would merge their progress.
	ErrDuplicateTrial = errors.New("duplicate trial name")
)

// Config controls how an experiment runs.
type Config struct {
	// Seed is the base seed; trial i runs with Seed+i.
	Seed uint64
	// Concurrency bounds the trials in flight. Zero uses GOMAXPROCS.
	Concurrency int
}

// Result is the outcome of one trial.
type Result struct {
	Settings     trial.Settings `json:"settings"`
	Seed         uint64         `json:"seed"`
	Groups       []fof.Group    `json:"groups"`
	Duration     time.Duration  `json:"duration"`
	NonConverged int            `json:"non_converged"`
}

// Experiment is a set of trials sharing one read-only survey.
type Experiment struct {
	trials  []*trial.Trial
	cfg     Config
	tracker *Tracker
}

// New returns an experiment over trials. Trial names must be unique.
func New(trials []*trial.Trial, cfg Config) (*Experiment, error) {
	if len(trials) == 0 {
		return nil, ErrNoTrials
	}
	seen := make(map[string]struct{}, len(trials))
	for _, t := range trials {
		if _, dup := seen[t.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTrial, t.Name())
		}
		seen[t.Name()] = struct{}{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Experiment{trials: trials, cfg: cfg, tracker: NewTracker()}, nil
}

// Tracker exposes live progress of the running trials.
func (e *Experiment) Tracker() *Tracker { return e.tracker }

// Run executes every trial and returns results in trial order. The first
// failing trial cancels the rest.
func (e *Experiment) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, len(e.trials))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	monitoring.Logf("[Experiment] Running %d trials (concurrency %d, seed %d)",
		len(e.trials), e.cfg.Concurrency, e.cfg.Seed)
	for i, t := range e.trials {
		seed := e.cfg.Seed + uint64(i)
		g.Go(func() error {
			progress := fof.ExperimentProgress{Tracker: e.tracker, TaskID: t.Name()}
			start := time.Now()
			groups, err := t.Run(ctx, trial.Seeded(seed), progress)
			if err != nil {
				return fmt.Errorf("trial %s: %w", t.Name(), err)
			}
			r := Result{
				Settings: t.Settings(),
				Seed:     seed,
				Groups:   groups,
				Duration: time.Since(start),
			}
			for _, grp := range groups {
				if !grp.Converged {
					r.NonConverged++
				}
			}
			results[i] = r
			monitoring.Logf("[Experiment] %s: %d groups in %s", t.Name(), len(groups), r.Duration.Round(time.Millisecond))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary aggregates group counts across trials.
type Summary struct {
	Trials             int     `json:"trials"`
	GroupCountMean     float64 `json:"group_count_mean"`
	GroupCountStdDev   float64 `json:"group_count_stddev"`
	NonConvergedMean   float64 `json:"non_converged_mean"`
	NonConvergedStdDev float64 `json:"non_converged_stddev"`
}

// Summarize computes the mean and sample standard deviation of group and
// non-converged counts. A single trial has zero spread.
func Summarize(results []Result) Summary {
	s := Summary{Trials: len(results)}
	if len(results) == 0 {
		return s
	}
	counts := make([]float64, len(results))
	nonConverged := make([]float64, len(results))
	for i, r := range results {
		counts[i] = float64(len(r.Groups))
		nonConverged[i] = float64(r.NonConverged)
	}
	s.GroupCountMean, s.GroupCountStdDev = meanStdDev(counts)
	s.NonConvergedMean, s.NonConvergedStdDev = meanStdDev(nonConverged)
	return s
}

func meanStdDev(xs []float64) (mean, std float64) {
	mean, std = stat.MeanStdDev(xs, nil)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

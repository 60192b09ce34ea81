package fof

import (
	"errors"
	"fmt"

	"github.com/banshee-data/galaxygroups/internal/monitoring"
)

// ProgressMode names how a run surfaces its progress.
type ProgressMode string

const (
	ModeExperiment  ProgressMode = "experiment"
	ModeSingleTrial ProgressMode = "single_trial"
	ModeDebug       ProgressMode = "debug"
)

var (
	// ErrMissingProgressTracker is returned when experiment mode is used
	// without a tracker or task id.
	ErrMissingProgressTracker = errors.New("experiment progress mode requires a progress tracker and task id")
	// ErrUnknownProgressMode is returned by ParseProgressMode.
	ErrUnknownProgressMode = errors.New("unknown progress mode")
)

// ParseProgressMode converts a CLI or config string into a ProgressMode.
func ParseProgressMode(s string) (ProgressMode, error) {
	switch m := ProgressMode(s); m {
	case ModeExperiment, ModeSingleTrial, ModeDebug:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (want experiment, single_trial or debug)", ErrUnknownProgressMode, s)
}

// ProgressTracker receives experiment progress for one task at a time.
type ProgressTracker interface {
	Update(taskID string, assigned, total, groups int)
}

// Progress is the sink a run reports to. The set of implementations is
// closed: ExperimentProgress, SingleTrialProgress and DebugProgress.
type Progress interface {
	Mode() ProgressMode
	Start(total int)
	GroupFound(g Group, assigned, total, groups int)
	Done(groups, total int)

	validate() error
}

// NewProgress builds the Progress variant for mode. Experiment mode needs a
// tracker and a task id.
func NewProgress(mode ProgressMode, tracker ProgressTracker, taskID string) (Progress, error) {
	var p Progress
	switch mode {
	case ModeExperiment:
		p = ExperimentProgress{Tracker: tracker, TaskID: taskID}
	case ModeSingleTrial:
		p = SingleTrialProgress{}
	case ModeDebug:
		p = DebugProgress{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgressMode, mode)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateProgress checks p before a run starts. A nil Progress is valid and
// behaves as SingleTrialProgress.
func ValidateProgress(p Progress) error {
	if p == nil {
		return nil
	}
	return p.validate()
}

// ExperimentProgress forwards counts to a shared tracker under TaskID.
type ExperimentProgress struct {
	Tracker ProgressTracker
	TaskID  string
}

func (ExperimentProgress) Mode() ProgressMode { return ModeExperiment }

func (p ExperimentProgress) Start(total int) {
	p.Tracker.Update(p.TaskID, 0, total, 0)
}

func (p ExperimentProgress) GroupFound(_ Group, assigned, total, groups int) {
	p.Tracker.Update(p.TaskID, assigned, total, groups)
}

func (p ExperimentProgress) Done(groups, total int) {
	p.Tracker.Update(p.TaskID, total, total, groups)
}

func (p ExperimentProgress) validate() error {
	if p.Tracker == nil || p.TaskID == "" {
		return ErrMissingProgressTracker
	}
	return nil
}

// SingleTrialProgress logs the start, every tenth of the catalog, and the end.
type SingleTrialProgress struct{}

func (SingleTrialProgress) Mode() ProgressMode { return ModeSingleTrial }

func (SingleTrialProgress) Start(total int) {
	monitoring.Logf("[FoF] Grouping %d galaxies", total)
}

func (SingleTrialProgress) GroupFound(g Group, assigned, total, groups int) {
	if total < 10 {
		return
	}
	step := total / 10
	// Log when this group carried the count across a decile boundary.
	prev := assigned - len(g.Members)
	if prev/step != assigned/step {
		monitoring.Logf("[FoF] %d/%d galaxies assigned (%d groups)", assigned, total, groups)
	}
}

func (SingleTrialProgress) Done(groups, total int) {
	monitoring.Logf("[FoF] Found %d groups in %d galaxies", groups, total)
}

func (SingleTrialProgress) validate() error { return nil }

// DebugProgress logs every group as it is finalised.
type DebugProgress struct{}

func (DebugProgress) Mode() ProgressMode { return ModeDebug }

func (DebugProgress) Start(total int) {
	monitoring.Debugf("[FoF] Grouping %d galaxies", total)
}

func (DebugProgress) GroupFound(g Group, assigned, total, groups int) {
	monitoring.Debugf("[FoF] group %d: seed=%d members=%d iterations=%d converged=%t (%d/%d assigned)",
		groups, g.Seed, len(g.Members), g.Iterations, g.Converged, assigned, total)
}

func (DebugProgress) Done(groups, total int) {
	monitoring.Debugf("[FoF] Found %d groups in %d galaxies", groups, total)
}

func (DebugProgress) validate() error { return nil }

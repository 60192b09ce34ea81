package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/galaxygroups/internal/fof"
	"github.com/banshee-data/galaxygroups/internal/monitoring"
	"github.com/banshee-data/galaxygroups/internal/survey"
	"github.com/banshee-data/galaxygroups/internal/trial"
)

// RunManager turns finished trials into stored runs.
type RunManager struct {
	db     *DB
	survey *survey.Survey
}

// NewRunManager returns a manager that records runs over s into db.
func NewRunManager(db *DB, s *survey.Survey) *RunManager {
	return &RunManager{db: db, survey: s}
}

// TrialRun is the outcome of one trial ready to be stored.
type TrialRun struct {
	Settings trial.Settings
	Seed     uint64
	Groups   []fof.Group
	Duration time.Duration
}

// Record assigns a run id, computes group properties and stores the run.
func (m *RunManager) Record(ctx context.Context, tr TrialRun) (string, error) {
	runID := uuid.New().String()

	settingsJSON, err := json.Marshal(tr.Settings)
	if err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}

	run := RunRecord{
		RunID:         runID,
		Name:          tr.Settings.Name,
		AlgorithmType: tr.Settings.AlgorithmType,
		Seed:          tr.Seed,
		SettingsJSON:  string(settingsJSON),
		Galaxies:      m.survey.Len(),
		GroupCount:    len(tr.Groups),
		DurationMs:    tr.Duration.Milliseconds(),
		CreatedAt:     time.Now(),
	}

	groups := make([]GroupRecord, len(tr.Groups))
	for i, g := range tr.Groups {
		if !g.Converged {
			run.NonConverged++
		}
		p := g.Properties(m.survey)
		groups[i] = GroupRecord{
			GroupIndex:         i,
			SeedGalaxy:         g.Seed,
			Iterations:         g.Iterations,
			Converged:          g.Converged,
			Multiplicity:       p.Multiplicity,
			RA:                 p.RA,
			Dec:                p.Dec,
			Vel:                p.Vel,
			VelocityDispersion: p.VelocityDispersion,
			ProjectedRadius:    p.ProjectedRadius,
			Members:            g.Members,
		}
	}

	if err := m.db.RecordRun(ctx, run, groups); err != nil {
		return "", err
	}
	monitoring.Logf("[RunManager] Stored run %s (%s): %d groups", runID, run.Name, run.GroupCount)
	return runID, nil
}

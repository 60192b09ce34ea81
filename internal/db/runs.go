package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run id has no stored record.
var ErrRunNotFound = errors.New("run not found")

// RunRecord is one persisted trial run.
type RunRecord struct {
	RunID         string    `json:"run_id"`
	Name          string    `json:"name"`
	AlgorithmType string    `json:"algorithm_type"`
	Seed          uint64    `json:"seed"`
	SettingsJSON  string    `json:"settings_json"`
	Galaxies      int       `json:"galaxies"`
	GroupCount    int       `json:"group_count"`
	NonConverged  int       `json:"non_converged"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

// GroupRecord is one persisted group with its summary properties.
type GroupRecord struct {
	GroupIndex         int     `json:"group_index"`
	SeedGalaxy         int     `json:"seed_galaxy"`
	Iterations         int     `json:"iterations"`
	Converged          bool    `json:"converged"`
	Multiplicity       int     `json:"multiplicity"`
	RA                 float64 `json:"ra"`
	Dec                float64 `json:"dec"`
	Vel                float64 `json:"vel"`
	VelocityDispersion float64 `json:"velocity_dispersion"`
	ProjectedRadius    float64 `json:"projected_radius"`
	Members            []int   `json:"members,omitempty"`
}

// RecordRun stores run and its groups in one transaction.
func (db *DB) RecordRun(ctx context.Context, run RunRecord, groups []GroupRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO fof_runs (
			run_id, name, algorithm_type, seed, settings_json, galaxies,
			group_count, non_converged, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Name, run.AlgorithmType, int64(run.Seed), run.SettingsJSON, run.Galaxies,
		run.GroupCount, run.NonConverged, run.DurationMs, run.CreatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.RunID, err)
	}

	groupStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fof_groups (
			run_id, group_index, seed_galaxy, iterations, converged, multiplicity,
			ra, dec, vel, velocity_dispersion, projected_radius
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer groupStmt.Close()

	memberStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fof_group_members (run_id, group_index, galaxy_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer memberStmt.Close()

	for _, g := range groups {
		if _, err := groupStmt.ExecContext(ctx,
			run.RunID, g.GroupIndex, g.SeedGalaxy, g.Iterations, g.Converged, g.Multiplicity,
			g.RA, g.Dec, g.Vel, g.VelocityDispersion, g.ProjectedRadius,
		); err != nil {
			return fmt.Errorf("failed to insert group %d: %w", g.GroupIndex, err)
		}
		for _, id := range g.Members {
			if _, err := memberStmt.ExecContext(ctx, run.RunID, g.GroupIndex, id); err != nil {
				return fmt.Errorf("failed to insert member %d of group %d: %w", id, g.GroupIndex, err)
			}
		}
	}
	return tx.Commit()
}

// ListRuns returns stored runs, newest first. A limit <= 0 returns all.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT run_id, name, algorithm_type, seed, settings_json, galaxies,
			group_count, non_converged, duration_ms, created_at
		FROM fof_runs ORDER BY created_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns one stored run.
func (db *DB) Run(ctx context.Context, runID string) (RunRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT run_id, name, algorithm_type, seed, settings_json, galaxies,
			group_count, non_converged, duration_ms, created_at
		FROM fof_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (RunRecord, error) {
	var (
		r         RunRecord
		seed      int64
		createdNs int64
	)
	if err := s.Scan(&r.RunID, &r.Name, &r.AlgorithmType, &seed, &r.SettingsJSON, &r.Galaxies,
		&r.GroupCount, &r.NonConverged, &r.DurationMs, &createdNs); err != nil {
		return RunRecord{}, err
	}
	r.Seed = uint64(seed)
	r.CreatedAt = time.Unix(0, createdNs)
	return r, nil
}

// GroupsForRun returns the groups of runID in group order, without members.
func (db *DB) GroupsForRun(ctx context.Context, runID string) ([]GroupRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT group_index, seed_galaxy, iterations, converged, multiplicity,
			ra, dec, vel, velocity_dispersion, projected_radius
		FROM fof_groups WHERE run_id = ? ORDER BY group_index`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []GroupRecord
	for rows.Next() {
		var g GroupRecord
		var ra, dec, vel sql.NullFloat64
		if err := rows.Scan(&g.GroupIndex, &g.SeedGalaxy, &g.Iterations, &g.Converged, &g.Multiplicity,
			&ra, &dec, &vel, &g.VelocityDispersion, &g.ProjectedRadius); err != nil {
			return nil, err
		}
		g.RA, g.Dec, g.Vel = ra.Float64, dec.Float64, vel.Float64
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// MembersForGroup returns the sorted galaxy ids of one group.
func (db *DB) MembersForGroup(ctx context.Context, runID string, groupIndex int) ([]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT galaxy_id FROM fof_group_members
		WHERE run_id = ? AND group_index = ? ORDER BY galaxy_id`, runID, groupIndex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Assignments maps every galaxy in runID to its group index.
func (db *DB) Assignments(ctx context.Context, runID string) (map[int]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT galaxy_id, group_index FROM fof_group_members WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var id, group int
		if err := rows.Scan(&id, &group); err != nil {
			return nil, err
		}
		out[id] = group
	}
	return out, rows.Err()
}

// DeleteRun removes a run with its groups and members.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM fof_runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

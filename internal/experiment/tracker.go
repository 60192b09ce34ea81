package experiment

import (
	"sort"
	"sync"
)

// TaskProgress is the latest progress reported by one trial.
type TaskProgress struct {
	TaskID   string `json:"task_id"`
	Assigned int    `json:"assigned"`
	Total    int    `json:"total"`
	Groups   int    `json:"groups"`
}

// Done reports whether every galaxy has been assigned.
func (p TaskProgress) Done() bool {
	return p.Total > 0 && p.Assigned >= p.Total
}

// Tracker collects progress from concurrently running trials. It is safe
// for concurrent use and satisfies fof.ProgressTracker.
type Tracker struct {
	mu    sync.Mutex
	tasks map[string]TaskProgress
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{tasks: make(map[string]TaskProgress)}
}

// Update records the latest counts for taskID.
func (t *Tracker) Update(taskID string, assigned, total, groups int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tasks[taskID] = TaskProgress{TaskID: taskID, Assigned: assigned, Total: total, Groups: groups}
}

// Snapshot returns a copy of every task's progress ordered by task id.
func (t *Tracker) Snapshot() []TaskProgress {
	t.mu.Lock()
	out := make([]TaskProgress, 0, len(t.tasks))
	for _, p := range t.tasks {
		out = append(out, p)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// Overall sums assigned and total galaxies across all tasks.
func (t *Tracker) Overall() (assigned, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.tasks {
		assigned += p.Assigned
		total += p.Total
	}
	return assigned, total
}

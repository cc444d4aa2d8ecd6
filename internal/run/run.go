package run

import (
	"sync"

	"github.com/google/uuid"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/manifest"
)

// Status of one build job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Returns true for the two terminal job statuses.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// State of the coordinator for one run.
type State string

const (
	StateCollecting State = "collecting"
	StateAllDone    State = "all-done"
	StatePublishing State = "publishing"
	StatePublished  State = "published"
	StateAborted    State = "aborted"
)

// One target's build tracked through a run.
//
// Transitions are driven exclusively by the build worker that owns the
// target; no other component writes the job.
type Job struct {
	Target   manifest.Target
	Status   Status
	Artifact *artifact.Artifact
	Err      error
}

// Process-wide aggregate for one orchestration run.
//
// Each job slot has exactly one writer (the worker that owns the
// platform); the mutex only serializes slot marks against report
// snapshots, which may be taken concurrently by the trigger server.
type Run struct {
	ID       string // Unique run identifier.
	Revision string // Source revision being built.

	mu    sync.Mutex
	state State
	jobs  map[string]*Job
	order []string // Matrix declaration order, for deterministic reports.
}

// Creates the run state for a revision, with a pending job slot per
// matrix entry.
func newRun(revision string, targets []manifest.Target) *Run {
	r := &Run{
		ID:       uuid.NewString(),
		Revision: revision,
		state:    StateCollecting,
		jobs:     make(map[string]*Job, len(targets)),
		order:    make([]string, 0, len(targets)),
	}
	for _, t := range targets {
		r.jobs[t.Platform] = &Job{Target: t, Status: StatusPending}
		r.order = append(r.order, t.Platform)
	}
	return r
}

// Marks a job as running.
func (r *Run) start(platformID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[platformID].Status = StatusRunning
}

// Marks a job terminal with its outcome. Called exactly once per slot,
// by the worker goroutine that owns the platform.
func (r *Run) finish(platformID string, a *artifact.Artifact, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job := r.jobs[platformID]
	if err != nil {
		job.Status = StatusFailed
		job.Err = err
		return
	}
	job.Status = StatusSucceeded
	job.Artifact = a
}

// Moves the coordinator to a new state.
func (r *Run) setState(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
}

// Returns the coordinator's current state.
func (r *Run) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Returns the platforms whose jobs failed, in matrix order.
func (r *Run) failedPlatforms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var failed []string
	for _, id := range r.order {
		if r.jobs[id].Status == StatusFailed {
			failed = append(failed, id)
		}
	}
	return failed
}

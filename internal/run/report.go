package run

import (
	"errors"

	"github.com/liftoffbuild/liftoff/internal/worker"
)

// Point-in-time view of one job, safe to serialize.
type JobReport struct {
	Platform string `json:"platform"`
	Triple   string `json:"triple"`
	Status   Status `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Error    string `json:"error,omitempty"`
	Artifact string `json:"artifact,omitempty"`
}

// Point-in-time view of a run.
//
// Reports are snapshots: the trigger server serves them while builds
// are still in flight, so fields describe the moment of the snapshot,
// not the final outcome.
type Report struct {
	RunID     string      `json:"run_id"`
	Revision  string      `json:"revision"`
	ReleaseID string      `json:"release_id,omitempty"`
	State     State       `json:"state"`
	Jobs      []JobReport `json:"jobs"`
	Failed    []string    `json:"failed,omitempty"`
}

// Takes a consistent snapshot of the run, jobs in matrix order.
func (r *Run) Report() *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &Report{
		RunID:    r.ID,
		Revision: r.Revision,
		State:    r.state,
		Jobs:     make([]JobReport, 0, len(r.order)),
	}

	for _, id := range r.order {
		job := r.jobs[id]

		jr := JobReport{
			Platform: id,
			Triple:   job.Target.Triple,
			Status:   job.Status,
		}
		if job.Err != nil {
			jr.Error = job.Err.Error()

			var be *worker.BuildError
			if errors.As(job.Err, &be) {
				jr.Stage = string(be.Stage)
			}
		}
		if job.Artifact != nil {
			jr.Artifact = job.Artifact.Filename
		}

		report.Jobs = append(report.Jobs, jr)

		if job.Status == StatusFailed {
			report.Failed = append(report.Failed, id)
		}
	}

	return report
}

package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/compiler"
	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/release"
	"github.com/liftoffbuild/liftoff/internal/worker"
)

// Orchestrates one build-and-release run over the full target matrix.
//
// The coordinator fans out one build worker per matrix entry, waits at
// the barrier until every job is terminal, and only then decides the
// run outcome: a release covering the whole matrix, or an abort naming
// the platforms that failed. It is the sole publisher for a release
// identifier.
type Coordinator struct {
	Binary    string            // Base binary name.
	Targets   []manifest.Target // Target matrix.
	Compiler  compiler.Compiler // Compiler collaborator.
	Store     artifact.Store    // Artifact store collaborator.
	Publisher release.Publisher // Release hosting collaborator.
	Timeout   time.Duration     // Per-target build bound.
	Scratch   string            // Scratch root; each run gets a subdirectory.
}

// Creates the tracked state for a run on the given revision.
func (c *Coordinator) NewRun(revision string) *Run {
	return newRun(revision, c.Targets)
}

// Executes a run to its terminal state.
//
// Returns the final report. The error is non-nil when the run ended
// [StateAborted]; it wraps [ErrAborted], [ErrAggregation], or the
// publish failure so callers can map outcomes to exit codes.
func (c *Coordinator) Execute(ctx context.Context, r *Run) (*Report, error) {
	tracer := otel.Tracer("liftoff/run")

	ctx, span := tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("run.id", r.ID),
		attribute.String("run.revision", r.Revision),
	))
	defer span.End()

	scratch := filepath.Join(c.Scratch, r.ID)
	defer os.RemoveAll(scratch)

	slog.Info("run started", "run", r.ID, "revision", r.Revision, "targets", len(c.Targets))

	// Fan-out: one worker per matrix entry, each writing only its own
	// job slot. The wait group is the join barrier; completion order
	// does not matter, only the full set.
	var wg sync.WaitGroup
	for _, t := range c.Targets {
		wg.Add(1)
		go func(t manifest.Target) {
			defer wg.Done()
			c.buildTarget(ctx, tracer, r, t, scratch)
		}(t)
	}
	wg.Wait()

	// Barrier satisfied: every job is terminal, whatever its outcome.
	r.setState(StateAllDone)

	if failed := r.failedPlatforms(); len(failed) > 0 {
		r.setState(StateAborted)
		span.SetStatus(codes.Error, "builds failed")
		slog.Error("run aborted", "run", r.ID, "failed", failed)
		return r.Report(), fmt.Errorf("%w: failed platforms: %v", ErrAborted, failed)
	}

	r.setState(StatePublishing)

	rec, err := c.aggregate(ctx, tracer, r, scratch)
	if err != nil {
		r.setState(StateAborted)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("run aborted", "run", r.ID, "error", err)
		return r.Report(), err
	}

	if err := c.publish(ctx, tracer, rec); err != nil {
		r.setState(StateAborted)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("run aborted", "run", r.ID, "error", err)
		return r.Report(), err
	}

	r.setState(StatePublished)
	slog.Info("run published", "run", r.ID, "release", rec.ID, "assets", len(rec.Assets))

	report := r.Report()
	report.ReleaseID = rec.ID
	return report, nil
}

// Builds one target inside its own span and timeout, recording the
// outcome in the job slot.
//
// A worker that exceeds the timeout is cancelled and its job marked
// failed; a hung build never blocks the barrier indefinitely.
func (c *Coordinator) buildTarget(ctx context.Context, tracer trace.Tracer, r *Run, t manifest.Target, scratch string) {
	ctx, span := tracer.Start(ctx, "build", trace.WithAttributes(
		attribute.String("build.platform", t.Platform),
		attribute.String("build.triple", t.Triple),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	r.start(t.Platform)

	w := &worker.Worker{
		Target:   t,
		Binary:   c.Binary,
		Revision: r.Revision,
		Compiler: c.Compiler,
		Store:    c.Store,
		Scratch:  scratch,
	}

	a, err := w.Build(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("build failed", "run", r.ID, "platform", t.Platform, "error", err)
		r.finish(t.Platform, nil, err)
		return
	}

	r.finish(t.Platform, &a, nil)
}

// Downloads the full artifact set from the store and assembles the
// release record with its derived assets.
//
// Every succeeded job must have its artifact present in the store under
// the expected canonical name; anything else is an inconsistency between
// run state and store, fatal to the run.
func (c *Coordinator) aggregate(ctx context.Context, tracer trace.Tracer, r *Run, scratch string) (release.Record, error) {
	ctx, span := tracer.Start(ctx, "aggregate")
	defer span.End()

	staging := filepath.Join(scratch, "aggregate")

	ids := make([]string, 0, len(c.Targets))
	for _, t := range c.Targets {
		ids = append(ids, t.Platform)
	}

	got, err := c.Store.Download(ctx, r.Revision, ids, staging)
	if err != nil {
		return release.Record{}, fmt.Errorf("%w: %v", ErrAggregation, err)
	}

	artifacts := make([]artifact.Artifact, 0, len(c.Targets))
	for _, t := range c.Targets {
		a, ok := got[t.Platform]
		if !ok {
			return release.Record{}, fmt.Errorf("%w: platform %s missing from store", ErrAggregation, t.Platform)
		}

		want := artifact.Name(c.Binary, t.Platform, t.ExeSuffix)
		if a.Filename != want {
			return release.Record{}, fmt.Errorf("%w: platform %s stored as %q, want %q", ErrAggregation, t.Platform, a.Filename, want)
		}
		artifacts = append(artifacts, a)
	}

	rec := release.NewRecord(c.Binary, r.Revision, artifacts)

	bundle, err := release.Bundle(staging, c.Binary, rec.ID, rec.Assets)
	if err != nil {
		return release.Record{}, err
	}
	rec.Assets = append(rec.Assets, bundle)

	sums, err := release.Checksums(staging, rec.Assets)
	if err != nil {
		return release.Record{}, err
	}
	rec.Assets = append(rec.Assets, sums)

	return rec, nil
}

// Publishes the record inside its own span.
func (c *Coordinator) publish(ctx context.Context, tracer trace.Tracer, rec release.Record) error {
	ctx, span := tracer.Start(ctx, "publish", trace.WithAttributes(
		attribute.String("release.id", rec.ID),
	))
	defer span.End()

	return c.Publisher.Publish(ctx, rec)
}

package worker

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/compiler"
	"github.com/liftoffbuild/liftoff/internal/manifest"
)

// Builds and packages the artifact for one target of the matrix.
//
// A worker owns exactly one target and interacts with the rest of the
// system only through the artifact store. It never retries; failures
// surface as a [BuildError] and the retry decision belongs to the run
// coordinator.
type Worker struct {
	Target   manifest.Target   // Matrix entry this worker owns.
	Binary   string            // Base binary name for artifact naming.
	Revision string            // Source revision being built.
	Compiler compiler.Compiler // Compiler collaborator.
	Store    artifact.Store    // Artifact store collaborator.
	Scratch  string            // Run-scoped scratch directory.
}

// Builds the target end-to-end: compile, package under the canonical
// name, and upload to the artifact store.
//
// Nothing becomes visible in the store unless every prior step
// succeeded, so a failed build never leaves a partial artifact behind.
func (w *Worker) Build(ctx context.Context) (artifact.Artifact, error) {
	slog.Info("building", "platform", w.Target.Platform, "triple", w.Target.Triple)

	binPath, err := w.Compiler.Compile(ctx, w.Target, w.Revision)
	if err != nil {
		stage := StageCompile
		if errors.Is(err, compiler.ErrMissingOutput) {
			stage = StagePackage
		}
		return artifact.Artifact{}, w.fail(stage, err)
	}

	filename := artifact.Name(w.Binary, w.Target.Platform, w.Target.ExeSuffix)
	pkgDir := filepath.Join(w.Scratch, "package", w.Target.Platform)

	a, err := artifact.Package(binPath, pkgDir, filename, w.Target.Platform)
	if err != nil {
		return artifact.Artifact{}, w.fail(StagePackage, err)
	}

	if err := w.Store.Upload(ctx, w.Revision, a); err != nil {
		return artifact.Artifact{}, w.fail(StageUpload, err)
	}

	slog.Info("built", "platform", w.Target.Platform, "artifact", a.Filename, "size", a.Size)

	return a, nil
}

// Wraps a step failure with the worker's platform and stage.
func (w *Worker) fail(stage Stage, err error) *BuildError {
	return &BuildError{
		PlatformID: w.Target.Platform,
		Stage:      stage,
		Err:        err,
	}
}

package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

const (

	// Snapshotter used for build box filesystems.
	snapshotter = "overlayfs"

	// OCI runtime shim for running build boxes.
	ociRuntime = "io.containerd.runc.v2"
)

// Sequence counter for generating unique exec process identifiers.
var execSeq uint64

// Returns a unique exec process identifier.
func nextExecID() string {
	return fmt.Sprintf("exec-%d", atomic.AddUint64(&execSeq, 1))
}

// A hermetic build container backed by containerd.
//
// Boxes always run on the host platform; cross-platform output is the
// build command's job, driven by the target environment variables.
type box struct {
	client   *containerd.Client // Containerd client for managing the box.
	id       string             // Containerd container ID.
	platform string             // Host OCI platform the box runs on.
}

// Output of a command execution inside a box.
type execResult struct {
	ExitCode int    // Exit code of the process.
	Stderr   string // Captured standard error.
}

// Starts a build box from a previously imported image tag.
//
// Any stale box with the same ID from an earlier run is removed first.
// The image layers are unpacked into the snapshotter if needed, and a
// long-running task (sleep infinity) is started so subsequent exec calls
// have a running process to attach to.
func startBox(ctx context.Context, client *containerd.Client, tag, id string) (*box, error) {
	b := &box{
		client:   client,
		id:       id,
		platform: platforms.DefaultString(),
	}

	b.remove(ctx)

	image, err := b.resolveImage(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	ctr, err := b.create(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	if err := b.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	slog.Debug("build box started", "id", id, "image", tag)

	return b, nil
}

// Looks up the build image and selects the manifest for the host
// platform, unpacking its layers into the snapshotter if needed.
func (b *box) resolveImage(ctx context.Context, tag string) (containerd.Image, error) {
	p, err := platforms.Parse(b.platform)
	if err != nil {
		return nil, err
	}

	img, err := b.client.ImageService().Get(ctx, tag)
	if err != nil {
		return nil, err
	}

	image := containerd.NewImageWithPlatform(b.client, img, platforms.Only(p))

	unpacked, err := image.IsUnpacked(ctx, snapshotter)
	if err != nil {
		return nil, err
	}
	if !unpacked {
		if err := image.Unpack(ctx, snapshotter); err != nil {
			return nil, err
		}
	}

	return image, nil
}

// Creates the containerd container with the standard build configuration.
//
// The box shares the host network namespace and resolv.conf so build
// commands can fetch dependencies.
func (b *box) create(ctx context.Context, image containerd.Image) (containerd.Container, error) {
	return b.client.NewContainer(ctx, b.id,
		containerd.WithImage(image),
		containerd.WithSnapshotter(snapshotter),
		containerd.WithNewSnapshot(b.id, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithNewSpec(
			oci.WithDefaultSpecForPlatform(b.platform),
			oci.WithImageConfig(image),
			oci.WithHostNamespace(specs.NetworkNamespace),
			oci.WithHostResolvconf,
			oci.WithProcessArgs("sleep", "infinity"),
		),
	)
}

// Starts the box's long-running task with no attached IO.
func (b *box) startTask(ctx context.Context, ctr containerd.Container) error {
	task, err := ctr.NewTask(ctx, cio.NullIO)
	if err != nil {
		return err
	}
	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}
	return nil
}

// Runs a shell command inside the box.
//
// The command is passed as a single argument via "sh -c". Environment
// variables and working directory override the box's OCI spec for this
// execution only. A non-zero exit code is not an error; the caller
// decides.
func (b *box) run(ctx context.Context, command string, env []string, workdir string) (*execResult, error) {
	pspec, err := b.buildProcessSpec(ctx, env, workdir, execShell, "-c", command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	var stderr bytes.Buffer
	exitCode, err := b.execProcess(ctx, pspec, nil, nil, &stderr)
	if err != nil {
		return nil, err
	}

	return &execResult{ExitCode: exitCode, Stderr: stderr.String()}, nil
}

// Builds an OCI process spec for running a command inside the box.
//
// The base values are copied from the box's own OCI spec, then env and
// workdir are overridden if provided.
func (b *box) buildProcessSpec(ctx context.Context, env []string, workdir string, args ...string) (*specs.Process, error) {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return nil, err
	}

	spec, err := ctr.Spec(ctx)
	if err != nil {
		return nil, err
	}

	pspec := *spec.Process
	pspec.Terminal = false
	pspec.Args = args

	if len(env) > 0 {
		pspec.Env = append(append([]string{}, pspec.Env...), env...)
	}
	if workdir != "" {
		pspec.Cwd = workdir
	}

	return &pspec, nil
}

// Starts a process inside the box's running task, waits for it to exit,
// and returns the exit code.
//
// The process is attached as an additional exec, so the task started by
// [startBox] must still be running. Nil streams are replaced with
// io.Discard (stdout/stderr) or left disconnected (stdin). When stdin is
// provided, the box's stdin is explicitly closed after the reader
// returns EOF so the exec process receives the EOF signal; the
// containerd shim holds both ends of the stdin FIFO open and will not
// propagate EOF on its own.
func (b *box) execProcess(ctx context.Context, pspec *specs.Process, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	task, err := b.loadTask(ctx)
	if err != nil {
		return 0, err
	}

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	var stdinDone <-chan struct{}
	if stdin != nil {
		dr := newDoneReader(stdin)
		stdin = dr
		stdinDone = dr.done
	}

	process, err := task.Exec(ctx, nextExecID(), pspec, cio.NewCreator(
		cio.WithStreams(stdin, stdout, stderr),
	))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBox, err)
	}

	statusC, err := process.Wait(ctx)
	if err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %v", ErrBox, err)
	}

	if err := process.Start(ctx); err != nil {
		process.Delete(ctx)
		return 0, fmt.Errorf("%w: %v", ErrBox, err)
	}

	if stdinDone != nil {
		go func() {
			<-stdinDone
			process.CloseIO(ctx, containerd.WithStdinCloser)
		}()
	}

	exitStatus := <-statusC
	process.Delete(ctx)

	code, _, err := exitStatus.Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBox, err)
	}

	return int(code), nil
}

// Loads the box's running task.
func (b *box) loadTask(ctx context.Context) (containerd.Task, error) {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	return task, nil
}

// Creates a directory inside the box, including parents.
func (b *box) mkdirAll(ctx context.Context, path string) error {
	return b.mustExec(ctx, "mkdir", nil, nil, "mkdir", "-p", path)
}

// Copies a tar stream into the box's filesystem.
//
// The contents of r are extracted into destDir by piping them to
// "tar xf - -C destDir" inside the box.
func (b *box) copyTo(ctx context.Context, r io.Reader, destDir string) error {
	return b.mustExec(ctx, "tar extract", r, nil, "tar", "xf", "-", "-C", destDir)
}

// Copies a path from the box's filesystem as a tar stream.
//
// The file at path is archived by running "tar cf - -C <dir> <base>"
// inside the box and streaming the output to w.
func (b *box) copyFrom(ctx context.Context, w io.Writer, path string) error {
	return b.mustExec(ctx, "tar archive", nil, w, "tar", "cf", "-", "-C", filepath.Dir(path), filepath.Base(path))
}

// Runs a command inside the box, returning an error that includes desc
// if the process exits with a non-zero code.
func (b *box) mustExec(ctx context.Context, desc string, stdin io.Reader, stdout io.Writer, args ...string) error {
	pspec, err := b.buildProcessSpec(ctx, nil, "", args...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBox, err)
	}

	var stderr bytes.Buffer
	exitCode, err := b.execProcess(ctx, pspec, stdin, stdout, &stderr)
	if err != nil {
		return err
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: %s failed with exit code %d (%s)", ErrBox, desc, exitCode, stderr.String())
	}
	return nil
}

// Removes the box and its resources.
//
// The task is killed and the container is removed from containerd along
// with its snapshot. After destruction the handle is invalid.
func (b *box) destroy(ctx context.Context) {
	ctr, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		if !errdefs.IsNotFound(err) {
			slog.Warn("failed to load build box for destruction", "id", b.id, "error", err)
		}
		return
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		slog.Warn("failed to delete build box during destruction", "id", b.id, "error", err)
	}
}

// Removes an existing box with this ID, if one exists.
func (b *box) remove(ctx context.Context) {
	existing, err := b.client.LoadContainer(ctx, b.id)
	if err != nil {
		return
	}
	if task, err := existing.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}
	existing.Delete(ctx, containerd.WithSnapshotCleanup)
}

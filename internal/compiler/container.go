package compiler

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	containerd "github.com/containerd/containerd/v2/client"

	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/paths"
)

const (

	// Default containerd socket address.
	DefaultContainerdAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace for build boxes.
	DefaultContainerdNamespace = "liftoff"

	// Directory inside the box where the source tree is staged.
	boxWorkdir = "/work"
)

// Compiler that runs the build command inside a containerd-backed box.
//
// Each target gets its own box started from the configured build image.
// The source tree is streamed in as a tar archive, the command template
// runs with the target environment, and the compiled binary is streamed
// back out to the host scratch directory.
type ContainerCompiler struct {
	client  *containerd.Client
	image   string // Build image tag, already present in containerd.
	command string // Command template, run as "sh -c" inside the box.
	output  string // Output path template, relative to the box workdir unless absolute.
	dir     string // Host source directory staged into the box.
	binary  string // Base binary name, substituted for {binary}.
	scratch string // Host directory receiving extracted binaries.
}

// Configures a [ContainerCompiler].
type ContainerConfig struct {
	Address   string // Containerd socket address. Empty uses [DefaultContainerdAddress].
	Namespace string // Containerd namespace. Empty uses [DefaultContainerdNamespace].
	Image     string // Build image tag.
	Command   string // Command template.
	Output    string // Output path template.
	Dir       string // Host source directory. Empty uses the current directory.
	Binary    string // Base binary name.
	Scratch   string // Host scratch directory for extracted binaries.
}

// Creates a container compiler connected to containerd.
//
// The compiler must be closed when no longer needed.
func NewContainerCompiler(cfg ContainerConfig) (*ContainerCompiler, error) {
	address := cfg.Address
	if address == "" {
		address = DefaultContainerdAddress
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = DefaultContainerdNamespace
	}

	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}

	client, err := containerd.New(address, containerd.WithDefaultNamespace(namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBox, err)
	}

	return &ContainerCompiler{
		client:  client,
		image:   cfg.Image,
		command: cfg.Command,
		output:  cfg.Output,
		dir:     dir,
		binary:  cfg.Binary,
		scratch: cfg.Scratch,
	}, nil
}

// Closes the containerd client connection.
func (c *ContainerCompiler) Close() error {
	return c.client.Close()
}

// Compiles the target inside a fresh build box.
func (c *ContainerCompiler) Compile(ctx context.Context, target manifest.Target, revision string) (string, error) {
	p, err := target.Parse()
	if err != nil {
		return "", err
	}

	vars := templateVars{
		triple:   target.Triple,
		os:       p.OS,
		arch:     p.Architecture,
		platform: target.Platform,
		revision: revision,
		binary:   c.binary,
	}
	vars.output = expand(c.output, vars)

	id := fmt.Sprintf("liftoff-%s-%s", revision, target.Platform)

	b, err := startBox(ctx, c.client, c.image, id)
	if err != nil {
		return "", err
	}
	defer b.destroy(ctx)

	if err := c.stageSource(ctx, b); err != nil {
		return "", err
	}

	command := expand(c.command, vars)
	slog.Debug("compiling in box", "platform", target.Platform, "box", id, "command", command)

	result, err := b.run(ctx, command, targetEnv(vars), boxWorkdir)
	if err != nil {
		return "", err
	}
	if result.ExitCode != 0 {
		return "", fmt.Errorf("%w: platform %s: exit code %d: %s", ErrCompile, target.Platform, result.ExitCode, tail(result.Stderr))
	}

	return c.extractOutput(ctx, b, target, vars.output)
}

// Streams the host source tree into the box workdir as a tar archive.
func (c *ContainerCompiler) stageSource(ctx context.Context, b *box) error {
	if err := b.mkdirAll(ctx, boxWorkdir); err != nil {
		return err
	}

	pr, pw := io.Pipe()

	go func() {
		tw := tar.NewWriter(pw)
		err := writeDirToTar(tw, c.dir, ".")
		tw.Close()
		pw.CloseWithError(err)
	}()

	return b.copyTo(ctx, pr, boxWorkdir)
}

// Streams the compiled binary out of the box into the host scratch
// directory and returns its path.
//
// A reported-successful command with no file at the output path surfaces
// as a missing-output error, not a box error.
func (c *ContainerCompiler) extractOutput(ctx context.Context, b *box, target manifest.Target, output string) (string, error) {
	if !path.IsAbs(output) {
		output = path.Join(boxWorkdir, output)
	}

	destDir := filepath.Join(c.scratch, "box", target.Platform)
	if err := os.MkdirAll(destDir, paths.DefaultDirMode); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBox, err)
	}

	pr, pw := io.Pipe()

	errc := make(chan error, 1)
	go func() {
		errc <- b.copyFrom(ctx, pw, output)
		pw.Close()
	}()

	dest, extractErr := extractSingleFile(pr, destDir)
	io.Copy(io.Discard, pr)

	if err := <-errc; err != nil {
		return "", fmt.Errorf("%w: platform %s: %s", ErrMissingOutput, target.Platform, output)
	}
	if extractErr != nil {
		return "", fmt.Errorf("%w: platform %s: %v", ErrMissingOutput, target.Platform, extractErr)
	}

	return dest, nil
}

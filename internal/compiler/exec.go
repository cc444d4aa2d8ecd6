package compiler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/liftoffbuild/liftoff/internal/manifest"
)

// Shell used to run build command templates.
const execShell = "/bin/sh"

// Compiler that invokes the host toolchain through a shell command.
//
// The command template is expanded per target and run with the target
// triple exposed in the environment. After the command exits, the binary
// is expected at the expanded output path; a reported-successful command
// with no output there is a packaging-level failure.
type ExecCompiler struct {
	Command string // Command template, run as "sh -c".
	Output  string // Output path template, relative to Dir unless absolute.
	Dir     string // Working directory. Empty uses the current directory.
	Binary  string // Base binary name, substituted for {binary}.
}

// Compiles the target by running the expanded command template.
func (c *ExecCompiler) Compile(ctx context.Context, target manifest.Target, revision string) (string, error) {
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
		binary:   c.Binary,
	}
	vars.output = expand(c.Output, vars)

	command := expand(c.Command, vars)

	slog.Debug("compiling", "platform", target.Platform, "command", command)

	cmd := exec.CommandContext(ctx, execShell, "-c", command)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), targetEnv(vars)...)

	var stderr bytes.Buffer
	cmd.Stdout = os.Stderr
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: platform %s: %v: %s", ErrCompile, target.Platform, err, tail(stderr.String()))
	}

	output := vars.output
	if !filepath.IsAbs(output) {
		output = filepath.Join(c.Dir, output)
	}

	if _, err := os.Stat(output); err != nil {
		return "", fmt.Errorf("%w: platform %s: %s", ErrMissingOutput, target.Platform, output)
	}

	return output, nil
}

// Returns the last few lines of command output for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, "\n")
}

// Package compiler invokes the external compiler collaborator for one
// target of the matrix.
//
// The [Compiler] interface takes a target and a checked-out source
// revision and returns the path of the compiled binary. Two backends
// exist: [ExecCompiler] runs a shell command template against the host
// toolchain, and [ContainerCompiler] runs the same template inside a
// hermetic containerd-backed build box, streaming the source tree in and
// the binary out as tar archives.
//
// Both backends expand the same placeholders ({triple}, {os}, {arch},
// {platform}, {revision}, {binary}, {output}) and expose the target to
// the command through TARGET/GOOS-style environment variables, so the
// per-platform variability stays in the matrix data.
//
// Example usage:
//
//	c := &compiler.ExecCompiler{
//	    Command: "make dist OS={os} ARCH={arch}",
//	    Output:  "dist/{os}-{arch}/{binary}",
//	    Binary:  "clapper",
//	}
//
//	binPath, err := c.Compile(ctx, target, "abc1234")
//	if err != nil {
//	    return err
//	}
package compiler

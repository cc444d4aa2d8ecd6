package cli

import (
	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/compiler"
	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/paths"
	"github.com/liftoffbuild/liftoff/internal/release"
	"github.com/liftoffbuild/liftoff/internal/run"
)

// Constructs the coordinator and its collaborators from a manifest.
//
// The returned cleanup releases any connections the collaborators hold
// and must be called when the coordinator is no longer needed.
func buildCoordinator(m *manifest.Manifest) (*run.Coordinator, func() error, error) {
	scratch := paths.Scratch()

	comp, cleanup, err := buildCompiler(m, scratch)
	if err != nil {
		return nil, nil, err
	}

	c := &run.Coordinator{
		Binary:    m.Binary,
		Targets:   m.Targets,
		Compiler:  comp,
		Store:     buildStore(m),
		Publisher: buildPublisher(m),
		Timeout:   m.Timeout(),
		Scratch:   scratch,
	}

	return c, cleanup, nil
}

// Constructs the artifact store named by the manifest.
func buildStore(m *manifest.Manifest) artifact.Store {
	switch m.Store.Kind {
	case "sftp":
		return artifact.NewSFTPStore(artifact.SFTPConfig{
			Addr:     m.Store.Addr,
			User:     m.Store.User,
			KeyFile:  m.Store.KeyFile,
			Password: m.Store.Password,
			Root:     m.Store.Root,
		})
	default:
		root := m.Store.Root
		if root == "" {
			root = paths.Store()
		}
		return artifact.NewDirStore(root)
	}
}

// Constructs the release publisher named by the manifest.
func buildPublisher(m *manifest.Manifest) release.Publisher {
	switch m.Release.Kind {
	case "http":
		return release.NewHTTPPublisher(m.Release.URL, m.Release.Token)
	default:
		root := m.Release.Root
		if root == "" {
			root = paths.Releases()
		}
		return release.NewDirPublisher(root)
	}
}

// Constructs the compiler named by the manifest.
func buildCompiler(m *manifest.Manifest, scratch string) (compiler.Compiler, func() error, error) {
	noop := func() error { return nil }

	switch m.Compiler.Kind {
	case "container":
		c, err := compiler.NewContainerCompiler(compiler.ContainerConfig{
			Address:   m.Compiler.Address,
			Namespace: m.Compiler.Namespace,
			Image:     m.Compiler.Image,
			Command:   m.Compiler.Command,
			Output:    m.Compiler.Output,
			Dir:       m.Compiler.Dir,
			Binary:    m.Binary,
			Scratch:   scratch,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return &compiler.ExecCompiler{
			Command: m.Compiler.Command,
			Output:  m.Compiler.Output,
			Dir:     m.Compiler.Dir,
			Binary:  m.Binary,
		}, noop, nil
	}
}

package cli

import (
	"testing"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/compiler"
	"github.com/liftoffbuild/liftoff/internal/manifest"
	"github.com/liftoffbuild/liftoff/internal/release"
)

const minimalManifest = `
binary: clapper
compiler:
  command: make dist OS={os} ARCH={arch}
  output: dist/{os}-{arch}/{binary}
`

func parseManifest(t *testing.T, data string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return m
}

func TestBuildStoreKinds(t *testing.T) {
	m := parseManifest(t, minimalManifest)
	if _, ok := buildStore(m).(*artifact.DirStore); !ok {
		t.Fatalf("store = %T, want *artifact.DirStore", buildStore(m))
	}

	m = parseManifest(t, minimalManifest+`
store:
  kind: sftp
  addr: host:22
  user: ci
`)
	if _, ok := buildStore(m).(*artifact.SFTPStore); !ok {
		t.Fatalf("store = %T, want *artifact.SFTPStore", buildStore(m))
	}
}

func TestBuildPublisherKinds(t *testing.T) {
	m := parseManifest(t, minimalManifest)
	if _, ok := buildPublisher(m).(*release.DirPublisher); !ok {
		t.Fatalf("publisher = %T, want *release.DirPublisher", buildPublisher(m))
	}

	m = parseManifest(t, minimalManifest+`
release:
  kind: http
  url: https://releases.example.com
`)
	if _, ok := buildPublisher(m).(*release.HTTPPublisher); !ok {
		t.Fatalf("publisher = %T, want *release.HTTPPublisher", buildPublisher(m))
	}
}

func TestBuildCompilerExec(t *testing.T) {
	m := parseManifest(t, minimalManifest)

	comp, cleanup, err := buildCompiler(m, t.TempDir())
	if err != nil {
		t.Fatalf("buildCompiler failed: %v", err)
	}
	defer cleanup()

	ec, ok := comp.(*compiler.ExecCompiler)
	if !ok {
		t.Fatalf("compiler = %T, want *compiler.ExecCompiler", comp)
	}
	if ec.Binary != "clapper" {
		t.Fatalf("binary = %q, want clapper", ec.Binary)
	}
}

func TestBuildCoordinator(t *testing.T) {
	m := parseManifest(t, minimalManifest)

	c, cleanup, err := buildCoordinator(m)
	if err != nil {
		t.Fatalf("buildCoordinator failed: %v", err)
	}
	defer cleanup()

	if c.Binary != "clapper" {
		t.Fatalf("binary = %q, want clapper", c.Binary)
	}
	if len(c.Targets) != len(manifest.DefaultTargets()) {
		t.Fatalf("targets = %d, want default matrix", len(c.Targets))
	}
	if c.Timeout != manifest.DefaultBuildTimeout {
		t.Fatalf("timeout = %v, want %v", c.Timeout, manifest.DefaultBuildTimeout)
	}
}

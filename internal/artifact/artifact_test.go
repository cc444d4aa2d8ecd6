package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"

	"github.com/liftoffbuild/liftoff/internal/manifest"
)

func TestName(t *testing.T) {
	if got := Name("clapper", "linux-amd64", false); got != "clapper-linux-amd64" {
		t.Fatalf("Name = %q, want clapper-linux-amd64", got)
	}
	if got := Name("clapper", "windows-amd64", true); got != "clapper-windows-amd64.exe" {
		t.Fatalf("Name = %q, want clapper-windows-amd64.exe", got)
	}
}

func TestNameUniqueAcrossMatrix(t *testing.T) {
	seen := make(map[string]string)
	for _, target := range manifest.DefaultTargets() {
		name := Name("clapper", target.Platform, target.ExeSuffix)
		if prev, ok := seen[name]; ok {
			t.Fatalf("platforms %s and %s collide on %q", prev, target.Platform, name)
		}
		seen[name] = target.Platform
	}
}

func TestPackage(t *testing.T) {
	dir := t.TempDir()

	bin := filepath.Join(dir, "raw-binary")
	content := []byte("fake elf bytes")
	if err := os.WriteFile(bin, content, 0755); err != nil {
		t.Fatal(err)
	}

	destDir := filepath.Join(dir, "packaged")
	a, err := Package(bin, destDir, "clapper-linux-amd64", "linux-amd64")
	if err != nil {
		t.Fatalf("Package failed: %v", err)
	}

	if a.Filename != "clapper-linux-amd64" {
		t.Fatalf("filename = %q, want clapper-linux-amd64", a.Filename)
	}
	if a.PlatformID != "linux-amd64" {
		t.Fatalf("platform = %q, want linux-amd64", a.PlatformID)
	}
	if a.Size != int64(len(content)) {
		t.Fatalf("size = %d, want %d", a.Size, len(content))
	}
	if a.Digest != digest.FromBytes(content) {
		t.Fatalf("digest = %s, want %s", a.Digest, digest.FromBytes(content))
	}

	got, err := os.ReadFile(a.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatal("packaged bytes differ from source")
	}

	// The original is left where the compiler put it.
	if _, err := os.Stat(bin); err != nil {
		t.Fatalf("source binary missing after packaging: %v", err)
	}
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "absent"), "x", "linux-amd64")
	if err == nil {
		t.Fatal("FromFile accepted a missing file")
	}
}

package release

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"

	"github.com/liftoffbuild/liftoff/internal/artifact"
)

func TestID(t *testing.T) {
	id := ID("1.4.2")

	if len(id) != idLength {
		t.Fatalf("id length = %d, want %d", len(id), idLength)
	}
	if ID("1.4.2") != id {
		t.Fatal("ID is not deterministic")
	}
	if ID("1.4.3") == id {
		t.Fatal("different revisions produced the same id")
	}
}

func TestNewRecord(t *testing.T) {
	artifacts := []artifact.Artifact{
		{Filename: "clapper-windows-amd64.exe", PlatformID: "windows-amd64", Size: 2},
		{Filename: "clapper-linux-amd64", PlatformID: "linux-amd64", Size: 1},
	}

	rec := NewRecord("clapper", "1.4.2", artifacts)

	if rec.ID != ID("1.4.2") {
		t.Fatalf("id = %q, want %q", rec.ID, ID("1.4.2"))
	}
	if rec.Name != "clapper 1.4.2" {
		t.Fatalf("name = %q, want clapper 1.4.2", rec.Name)
	}
	if !rec.Prerelease {
		t.Fatal("record not marked prerelease")
	}
	if rec.Assets[0].Name != "clapper-linux-amd64" {
		t.Fatalf("assets[0] = %q, want assets sorted by name", rec.Assets[0].Name)
	}
}

func TestFileAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clapper-linux-amd64")
	content := []byte("binary bytes")
	if err := os.WriteFile(path, content, 0755); err != nil {
		t.Fatal(err)
	}

	a, err := fileAsset(path, "clapper-linux-amd64")
	if err != nil {
		t.Fatalf("fileAsset failed: %v", err)
	}
	if a.Size != int64(len(content)) {
		t.Fatalf("size = %d, want %d", a.Size, len(content))
	}
	if a.Digest != digest.FromBytes(content) {
		t.Fatalf("digest = %s, want %s", a.Digest, digest.FromBytes(content))
	}
}

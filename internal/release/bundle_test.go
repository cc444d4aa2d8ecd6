package release

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func writeAsset(t *testing.T, dir, name, content string) Asset {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		t.Fatal(err)
	}

	a, err := fileAsset(path, name)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	assets := []Asset{
		writeAsset(t, dir, "clapper-linux-amd64", "linux bytes"),
		writeAsset(t, dir, "clapper-windows-amd64.exe", "windows bytes"),
	}

	bundle, err := Bundle(dir, "clapper", "abc123def456", assets)
	if err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}

	if bundle.Name != "clapper-abc123def456.tar.zst" {
		t.Fatalf("bundle name = %q, want clapper-abc123def456.tar.zst", bundle.Name)
	}
	if bundle.Size == 0 {
		t.Fatal("bundle is empty")
	}

	f, err := os.Open(bundle.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("bundle is not valid zstd: %v", err)
	}
	defer zr.Close()

	contents := make(map[string]string)
	tr := tar.NewReader(zr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("bundle is not a valid tar: %v", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		contents[header.Name] = string(data)
	}

	if contents["clapper-linux-amd64"] != "linux bytes" {
		t.Fatalf("bundle entry = %q, want linux bytes", contents["clapper-linux-amd64"])
	}
	if contents["clapper-windows-amd64.exe"] != "windows bytes" {
		t.Fatalf("bundle entry = %q, want windows bytes", contents["clapper-windows-amd64.exe"])
	}
}

func TestBundleMissingAsset(t *testing.T) {
	dir := t.TempDir()
	assets := []Asset{{Name: "ghost", Path: filepath.Join(dir, "ghost")}}

	if _, err := Bundle(dir, "clapper", "abc123def456", assets); err == nil {
		t.Fatal("Bundle accepted a missing asset file")
	}
	if _, err := os.Stat(filepath.Join(dir, "clapper-abc123def456.tar.zst")); err == nil {
		t.Fatal("failed bundle left a partial file behind")
	}
}

func TestChecksums(t *testing.T) {
	dir := t.TempDir()
	assets := []Asset{
		writeAsset(t, dir, "clapper-linux-amd64", "linux bytes"),
		writeAsset(t, dir, "clapper-windows-amd64.exe", "windows bytes"),
	}

	sums, err := Checksums(dir, assets)
	if err != nil {
		t.Fatalf("Checksums failed: %v", err)
	}
	if sums.Name != "checksums.txt" {
		t.Fatalf("name = %q, want checksums.txt", sums.Name)
	}

	data, err := os.ReadFile(sums.Path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("checksums has %d lines, want 2", len(lines))
	}

	for i, a := range assets {
		want := fmt.Sprintf("%s  %s", a.Digest.Encoded(), a.Name)
		if lines[i] != want {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}

package release

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/liftoffbuild/liftoff/internal/artifact"
)

func TestDirPublish(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pub := NewDirPublisher(filepath.Join(dir, "releases"))

	rec := NewRecord("clapper", "1.4.2", []artifact.Artifact{
		{
			Filename:   "clapper-linux-amd64",
			PlatformID: "linux-amd64",
			Path:       writeAsset(t, dir, "clapper-linux-amd64", "linux bytes").Path,
		},
	})

	if err := pub.Publish(ctx, rec); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	releaseDir := filepath.Join(dir, "releases", rec.ID)

	if _, err := os.Stat(filepath.Join(releaseDir, "clapper-linux-amd64")); err != nil {
		t.Fatalf("asset not hosted: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(releaseDir, recordFile))
	if err != nil {
		t.Fatalf("record not hosted: %v", err)
	}

	var hosted Record
	if err := json.Unmarshal(data, &hosted); err != nil {
		t.Fatalf("hosted record is not valid JSON: %v", err)
	}
	if hosted.ID != rec.ID {
		t.Fatalf("hosted id = %q, want %q", hosted.ID, rec.ID)
	}
	if !hosted.Prerelease {
		t.Fatal("hosted record lost prerelease flag")
	}
}

func TestDirPublishIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pub := NewDirPublisher(filepath.Join(dir, "releases"))

	rec := NewRecord("clapper", "1.4.2", []artifact.Artifact{
		{Filename: "clapper-linux-amd64", Path: writeAsset(t, dir, "clapper-linux-amd64", "bytes").Path},
	})

	if err := pub.Publish(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := pub.Publish(ctx, rec); err != nil {
		t.Fatalf("second Publish failed: %v", err)
	}

	hosted, err := pub.load(filepath.Join(dir, "releases", rec.ID))
	if err != nil {
		t.Fatal(err)
	}
	if len(hosted.Assets) != 1 {
		t.Fatalf("assets = %d after republish, want 1", len(hosted.Assets))
	}
}

func TestDirPublishMergesAssets(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pub := NewDirPublisher(filepath.Join(dir, "releases"))

	first := NewRecord("clapper", "1.4.2", []artifact.Artifact{
		{Filename: "clapper-linux-amd64", Path: writeAsset(t, dir, "clapper-linux-amd64", "old linux").Path},
	})
	if err := pub.Publish(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := NewRecord("clapper", "1.4.2", []artifact.Artifact{
		{Filename: "clapper-windows-amd64.exe", Path: writeAsset(t, dir, "clapper-windows-amd64.exe", "windows").Path},
	})
	if err := pub.Publish(ctx, second); err != nil {
		t.Fatal(err)
	}

	releaseDir := filepath.Join(dir, "releases", first.ID)

	hosted, err := pub.load(releaseDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(hosted.Assets) != 2 {
		t.Fatalf("assets = %d after merge, want 2", len(hosted.Assets))
	}

	// The asset only present in the first publish survives on disk.
	if _, err := os.Stat(filepath.Join(releaseDir, "clapper-linux-amd64")); err != nil {
		t.Fatalf("earlier asset lost in merge: %v", err)
	}
}

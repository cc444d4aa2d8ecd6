package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/liftoffbuild/liftoff/internal/artifact"
	"github.com/liftoffbuild/liftoff/internal/paths"
)

// Name of the release metadata file inside each release directory.
const recordFile = "release.json"

// Release host backed by a local directory tree.
//
// Each release lives at <root>/<id>/ with its assets and a release.json
// record. Publishing an existing identifier merges asset sets: assets
// with the same name are overwritten, assets only present in the hosted
// release are kept.
type DirPublisher struct {
	root string
}

// Creates a directory publisher rooted at the given path.
func NewDirPublisher(root string) *DirPublisher {
	return &DirPublisher{root: root}
}

// Publishes the record, creating or updating the release directory.
func (p *DirPublisher) Publish(ctx context.Context, rec Record) error {
	dir := filepath.Join(p.root, rec.ID)
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	merged, err := p.merge(dir, rec)
	if err != nil {
		return err
	}

	for _, a := range rec.Assets {
		if err := artifact.CopyFile(a.Path, filepath.Join(dir, a.Name)); err != nil {
			return fmt.Errorf("%w: asset %s: %v", ErrPublish, a.Name, err)
		}
	}

	if err := p.writeRecord(dir, merged); err != nil {
		return err
	}

	slog.Info("release published", "host", "dir", "id", rec.ID, "assets", len(merged.Assets), "dir", dir)
	return nil
}

// Merges the incoming record with any record already hosted under the
// same identifier.
func (p *DirPublisher) merge(dir string, rec Record) (Record, error) {
	existing, err := p.load(dir)
	if errors.Is(err, os.ErrNotExist) {
		return rec, nil
	}
	if err != nil {
		return Record{}, err
	}

	byName := make(map[string]Asset, len(existing.Assets)+len(rec.Assets))
	for _, a := range existing.Assets {
		byName[a.Name] = a
	}
	for _, a := range rec.Assets {
		byName[a.Name] = a
	}

	merged := rec
	merged.Assets = make([]Asset, 0, len(byName))
	for _, a := range byName {
		merged.Assets = append(merged.Assets, a)
	}
	sortAssets(merged.Assets)

	return merged, nil
}

// Loads the hosted record from a release directory.
func (p *DirPublisher) load(dir string) (Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: corrupt %s: %v", ErrPublish, recordFile, err)
	}
	return rec, nil
}

// Writes the record file atomically.
func (p *DirPublisher) writeRecord(dir string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	tmp := filepath.Join(dir, recordFile+".tmp")
	if err := os.WriteFile(tmp, data, paths.DefaultFileMode); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, recordFile)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

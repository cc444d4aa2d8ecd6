package artifact

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/liftoffbuild/liftoff/internal/paths"
)

// Artifact store backed by a local directory tree.
//
// Artifacts live at <root>/<revision>/<platformID>/<filename>. Uploads
// write to a temporary file in the key directory and rename it into
// place, so a partially written artifact is never visible.
type DirStore struct {
	root string
}

// Creates a directory store rooted at the given path.
func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

// Uploads an artifact under its revision and platform key.
//
// Any artifact a previous run left under the key is removed first, so a
// key never holds more than one file.
func (s *DirStore) Upload(ctx context.Context, revision string, a Artifact) error {
	dir := filepath.Join(s.root, revision, a.PlatformID)

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if err := os.MkdirAll(dir, paths.DefaultDirMode); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	dest := filepath.Join(dir, a.Filename)
	if err := CopyFile(a.Path, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}

	slog.Debug("artifact uploaded", "store", "dir", "revision", revision, "platform", a.PlatformID, "file", a.Filename)
	return nil
}

// Downloads the artifacts for the given platform keys into destDir.
func (s *DirStore) Download(ctx context.Context, revision string, platformIDs []string, destDir string) (map[string]Artifact, error) {
	if err := os.MkdirAll(destDir, paths.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	found := make(map[string]Artifact, len(platformIDs))

	for _, id := range platformIDs {
		dir := filepath.Join(s.root, revision, id)

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) == 0 {
			return nil, fmt.Errorf("%w: platform %s at revision %s", ErrNotFound, id, revision)
		}

		filename := entries[0].Name()
		dest := filepath.Join(destDir, filename)
		if err := CopyFile(filepath.Join(dir, filename), dest); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStore, err)
		}

		a, err := FromFile(dest, filename, id)
		if err != nil {
			return nil, err
		}
		found[id] = a
	}

	return found, nil
}

// Copies src to dest via a temporary file in dest's directory, renaming
// into place once the bytes are fully written. A reader of dest never
// observes a partially copied file.
func CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".partial-*")
	if err != nil {
		return err
	}

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), paths.DefaultFileMode); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), dest)
}

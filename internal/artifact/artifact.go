package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"

	"github.com/liftoffbuild/liftoff/internal/paths"
)

// A named, packaged binary for one platform.
//
// Filename is the canonical name produced by [Name]. Path points at the
// packaged bytes on the local filesystem. Digest and Size describe the
// content and are fixed once the artifact is packaged.
type Artifact struct {
	Filename   string
	PlatformID string
	Path       string
	Digest     digest.Digest
	Size       int64
}

// Returns the canonical artifact filename for a platform.
//
// The platform identifier is embedded verbatim, so distinct platforms can
// never produce colliding names. Platforms with executable suffixes get
// ".exe" appended.
func Name(baseName, platformID string, exeSuffix bool) string {
	name := baseName + "-" + platformID
	if exeSuffix {
		name += ".exe"
	}
	return name
}

// Packages a compiled binary under its canonical filename.
//
// The binary is copied into destDir via a temporary file and renamed
// into place, then described as an artifact record. The original binary
// is left untouched.
func Package(binPath, destDir, filename, platformID string) (Artifact, error) {
	if err := os.MkdirAll(destDir, paths.DefaultDirMode); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	dest := filepath.Join(destDir, filename)
	if err := CopyFile(binPath, dest); err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return FromFile(dest, filename, platformID)
}

// Builds an artifact record for a packaged file, computing its digest
// and size from the file contents.
func FromFile(path, filename, platformID string) (Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrStore, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	d, err := digest.FromReader(f)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrStore, err)
	}

	return Artifact{
		Filename:   filename,
		PlatformID: platformID,
		Path:       path,
		Digest:     d,
		Size:       info.Size(),
	}, nil
}

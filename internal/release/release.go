package release

import (
	"fmt"
	"os"
	"sort"

	"github.com/opencontainers/go-digest"

	"github.com/liftoffbuild/liftoff/internal/artifact"
)

// Length of the release identifier in hex characters.
const idLength = 12

// Returns the deterministic release identifier for a source revision.
//
// The identifier is a truncated sha256 of the revision string, so any
// two runs on the same revision compute the same identifier. It is the
// idempotency key for publishing: re-triggering a build converges on
// one release instead of creating duplicates.
func ID(revision string) string {
	return digest.FromString(revision).Encoded()[:idLength]
}

// One published file of a release.
type Asset struct {
	Name   string        `json:"name"`
	Digest digest.Digest `json:"digest"`
	Size   int64         `json:"size"`

	// Local path of the asset bytes. Not part of the published record.
	Path string `json:"-"`
}

// A versioned distribution entry covering the full target matrix.
type Record struct {
	ID         string  `json:"id"`
	Revision   string  `json:"revision"`
	Name       string  `json:"name"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Builds the release record for a fully successful run.
//
// The record's identifier derives from the revision alone, the release
// is always marked prerelease, and assets are sorted by name so two
// runs on the same inputs produce identical records.
func NewRecord(base, revision string, artifacts []artifact.Artifact) Record {
	assets := make([]Asset, 0, len(artifacts))
	for _, a := range artifacts {
		assets = append(assets, Asset{
			Name:   a.Filename,
			Digest: a.Digest,
			Size:   a.Size,
			Path:   a.Path,
		})
	}
	sortAssets(assets)

	return Record{
		ID:         ID(revision),
		Revision:   revision,
		Name:       fmt.Sprintf("%s %s", base, revision),
		Prerelease: true,
		Assets:     assets,
	}
}

// Sorts assets by name in place.
func sortAssets(assets []Asset) {
	sort.Slice(assets, func(i, j int) bool { return assets[i].Name < assets[j].Name })
}

// Describes a local file as an asset, computing its digest and size.
func fileAsset(path, name string) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrPublish, err)
	}

	d, err := digest.FromReader(f)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrPublish, err)
	}

	return Asset{Name: name, Digest: d, Size: info.Size(), Path: path}, nil
}

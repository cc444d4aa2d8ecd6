package artifact

import "context"

// Upload and download access to the artifact store collaborator.
//
// Keys are scoped by revision and platform identifier, so retried runs of
// the same revision overwrite their own keys and runs of distinct
// revisions never collide. Each key holds at most one artifact and has
// exactly one writer: the build worker that owns the platform.
type Store interface {

	// Makes the artifact visible in the store under its revision and
	// platform key, replacing any artifact a previous run left there.
	// No partially written artifact may ever become visible.
	Upload(ctx context.Context, revision string, a Artifact) error

	// Fetches the artifacts for the given platform keys into destDir.
	// A missing key is an error wrapping [ErrNotFound] that names the
	// platform; the caller treats it as a store inconsistency.
	Download(ctx context.Context, revision string, platformIDs []string, destDir string) (map[string]Artifact, error)
}

package release

import "context"

// Publishes release records to the release hosting collaborator.
//
// Publish must be idempotent on the record's identifier: publishing a
// record whose identifier already exists overwrites and merges the
// hosted release rather than creating a duplicate or erroring, so
// re-triggered runs of the same revision converge on one release.
type Publisher interface {
	Publish(ctx context.Context, rec Record) error
}

// Package artifact names packaged binaries and moves them through the
// artifact store.
//
// The namer is a pure function from (base name, platform id, suffix
// rule) to a canonical filename; platform identifiers are unique within
// a matrix, so names never collide. The [Store] interface is the seam
// to the artifact store collaborator, with a local directory backend
// and an SFTP backend. Store keys are scoped by revision and platform,
// and uploads are rename-into-place so no partial artifact is ever
// visible.
//
// Example usage:
//
//	store := artifact.NewDirStore(root)
//
//	a, err := artifact.FromFile(path, artifact.Name("clapper", "linux-amd64", false), "linux-amd64")
//	if err != nil {
//	    return err
//	}
//
//	if err := store.Upload(ctx, "abc1234", a); err != nil {
//	    return err
//	}
package artifact

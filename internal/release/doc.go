// Package release derives release identity and publishes artifact sets.
//
// A release identifier is a pure function of the source revision, so
// re-running the same revision always converges on the same release.
// The [Publisher] interface is the seam to the release hosting
// collaborator; the directory backend hosts releases on the local
// filesystem and the HTTP backend talks to a remote host with explicit
// create-or-update upsert logic. All releases are marked prerelease.
//
// Publishing also produces two derived assets: a zstd-compressed tar
// bundle of all per-platform binaries, and a checksums.txt with the
// sha256 of every asset.
package release

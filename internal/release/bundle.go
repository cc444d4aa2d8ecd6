package release

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Writes a zstd-compressed tar bundle of the given assets into dir.
//
// The bundle is an extra convenience asset named "<base>-<id>.tar.zst"
// containing every per-platform binary, published alongside them.
func Bundle(dir, base, id string, assets []Asset) (Asset, error) {
	name := fmt.Sprintf("%s-%s.tar.zst", base, id)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrBundle, err)
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return Asset{}, fmt.Errorf("%w: %v", ErrBundle, err)
	}

	tw := tar.NewWriter(zw)
	for _, a := range assets {
		if err := addBundleEntry(tw, a); err != nil {
			tw.Close()
			zw.Close()
			f.Close()
			os.Remove(path)
			return Asset{}, fmt.Errorf("%w: %v", ErrBundle, err)
		}
	}

	if err := closeAll(tw, zw, f); err != nil {
		os.Remove(path)
		return Asset{}, fmt.Errorf("%w: %v", ErrBundle, err)
	}

	return fileAsset(path, name)
}

// Writes one asset file into the bundle archive.
func addBundleEntry(tw *tar.Writer, a Asset) error {
	info, err := os.Stat(a.Path)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = a.Name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	f, err := os.Open(a.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(tw, f)
	return err
}

// Closes the tar, zstd, and file layers in order, returning the first
// error encountered.
func closeAll(tw *tar.Writer, zw *zstd.Encoder, f *os.File) error {
	if err := tw.Close(); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Writes a checksums.txt asset listing the sha256 of every asset.
//
// Lines use the conventional "<hex>  <name>" format accepted by
// sha256sum -c.
func Checksums(dir string, assets []Asset) (Asset, error) {
	var b strings.Builder
	for _, a := range assets {
		fmt.Fprintf(&b, "%s  %s\n", a.Digest.Encoded(), a.Name)
	}

	path := filepath.Join(dir, "checksums.txt")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrBundle, err)
	}

	return fileAsset(path, "checksums.txt")
}

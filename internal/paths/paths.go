package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "liftoff"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the scratch directory for per-run intermediate files
// (compiled binaries, packaged artifacts, download staging).
//
//	Linux:   ~/.cache/liftoff
//	macOS:   ~/Library/Caches/liftoff
func Scratch() string {
	return filepath.Join(xdg.CacheHome, toolName)
}

// Default root for the directory-backed artifact store.
//
//	Linux:   ~/.local/share/liftoff/store
//	macOS:   ~/Library/Application Support/liftoff/store
func Store() string {
	return filepath.Join(xdg.DataHome, toolName, "store")
}

// Default root for the directory-backed release host.
//
//	Linux:   ~/.local/share/liftoff/releases
//	macOS:   ~/Library/Application Support/liftoff/releases
func Releases() string {
	return filepath.Join(xdg.DataHome, toolName, "releases")
}

// Path to the directory for runtime files (PIDs, sockets).
//
//	Linux:   $XDG_RUNTIME_DIR/liftoff or /run/user/<uid>/liftoff
//	macOS:   ~/Library/Caches/liftoff/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, toolName)
	}
	return filepath.Join(xdg.CacheHome, toolName, "run")
}

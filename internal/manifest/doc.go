// Package manifest defines the project manifest and the target matrix.
//
// A manifest names the binary to build, enumerates the target matrix,
// and configures the three external collaborators: the compiler, the
// artifact store, and the release host. All per-platform variability
// lives in the matrix as data; no other package branches on platform.
//
// Example manifest:
//
//	binary: clapper
//	targets:
//	  - platform: linux-amd64
//	    triple: linux/amd64
//	  - platform: windows
//	    triple: windows/amd64
//	    exe_suffix: true
//	compiler:
//	  kind: exec
//	  command: "make dist OS={os} ARCH={arch}"
//	  output: "dist/{os}-{arch}/{binary}"
//	release:
//	  kind: http
//	  url: https://releases.example.com
package manifest

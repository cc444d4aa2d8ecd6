package manifest

import (
	"fmt"

	"github.com/containerd/platforms"
)

// One entry of the target matrix.
//
// Platform is the unique identifier used for artifact naming and store
// keys. Triple is the OS/architecture pair handed to the compiler
// collaborator (e.g., "linux/amd64"). ExeSuffix marks platforms whose
// executables carry a ".exe" extension.
type Target struct {
	Platform  string `yaml:"platform"`
	Triple    string `yaml:"triple"`
	ExeSuffix bool   `yaml:"exe_suffix"`
}

// Returns the parsed OS and architecture of the target's triple.
func (t Target) Parse() (platforms.Platform, error) {
	p, err := platforms.Parse(t.Triple)
	if err != nil {
		return platforms.Platform{}, fmt.Errorf("%w: target %s: %v", ErrMatrix, t.Platform, err)
	}
	return p, nil
}

// Returns the built-in target matrix.
//
// Used when a manifest does not declare its own targets.
func DefaultTargets() []Target {
	return []Target{
		{Platform: "linux-amd64", Triple: "linux/amd64"},
		{Platform: "linux-arm64", Triple: "linux/arm64"},
		{Platform: "darwin-amd64", Triple: "darwin/amd64"},
		{Platform: "darwin-arm64", Triple: "darwin/arm64"},
		{Platform: "windows-amd64", Triple: "windows/amd64", ExeSuffix: true},
	}
}

// Checks a target matrix for structural problems.
//
// The matrix must be non-empty, every entry must name a platform and a
// parseable triple, and platform identifiers must be unique, since they
// key artifact names and store uploads.
func ValidateTargets(targets []Target) error {
	if len(targets) == 0 {
		return fmt.Errorf("%w: at least one target is required", ErrMatrix)
	}

	seen := make(map[string]bool, len(targets))
	for _, t := range targets {
		if t.Platform == "" {
			return fmt.Errorf("%w: target with triple %q has no platform id", ErrMatrix, t.Triple)
		}
		if seen[t.Platform] {
			return fmt.Errorf("%w: duplicate platform id %q", ErrMatrix, t.Platform)
		}
		seen[t.Platform] = true

		if _, err := t.Parse(); err != nil {
			return err
		}
	}

	return nil
}

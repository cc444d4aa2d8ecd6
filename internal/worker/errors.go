package worker

import "fmt"

// Pipeline step in which a build failed.
type Stage string

const (
	StageCompile Stage = "compile"
	StagePackage Stage = "package"
	StageUpload  Stage = "upload"
)

// A build failure attributable to one platform.
type BuildError struct {
	PlatformID string // Platform whose build failed.
	Stage      Stage  // Step that failed.
	Err        error  // Underlying cause.
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("platform %s: %s: %v", e.PlatformID, e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

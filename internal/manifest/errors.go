package manifest

import "errors"

var (
	ErrManifest = errors.New("invalid manifest")
	ErrMatrix   = errors.New("invalid target matrix")
)

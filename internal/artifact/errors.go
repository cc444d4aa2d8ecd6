package artifact

import "errors"

var (
	ErrStore    = errors.New("artifact store operation failed")
	ErrNotFound = errors.New("artifact not found")
)

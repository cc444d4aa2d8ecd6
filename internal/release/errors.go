package release

import "errors"

var (
	ErrPublish = errors.New("publish failed")
	ErrBundle  = errors.New("bundle failed")
)

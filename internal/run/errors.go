package run

import "errors"

var (
	ErrAborted     = errors.New("run aborted")
	ErrAggregation = errors.New("artifact set incomplete")
)

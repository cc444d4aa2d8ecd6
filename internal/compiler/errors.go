package compiler

import "errors"

var (
	ErrCompile       = errors.New("compile failed")
	ErrMissingOutput = errors.New("compiler output missing")
	ErrBox           = errors.New("build box error")
)

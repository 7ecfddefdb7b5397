package core

import "errors"

// Failure classes reported at the process boundary. Stage errors wrap one of
// these so callers can classify them with errors.Is.
var (
	// ErrInvalidArguments indicates the wrong number of command-line arguments.
	ErrInvalidArguments = errors.New("invalid number of arguments")
	// ErrInvalidOptions indicates malformed or out-of-range voice options.
	ErrInvalidOptions = errors.New("invalid voice options")
	// ErrSynthesis indicates the synthesis capability failed.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrTransform indicates a post-processing stage failed.
	ErrTransform = errors.New("transform failed")
	// ErrWrite indicates the output could not be written.
	ErrWrite = errors.New("write failed")
)

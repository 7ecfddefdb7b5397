// Package effects implements the waveform transforms applied after
// synthesis: spectral pitch shifting, decimating speed change, energy boost
// and tanh soft clipping.
//
// Every function returns a freshly allocated waveform and leaves its input
// untouched.
package effects

import "errors"

// ErrInvalidInput is returned when a transform cannot run on its arguments,
// for example a waveform shorter than the analysis window or a non-positive
// speed factor.
var ErrInvalidInput = errors.New("invalid input")

// Package audio provides the waveform value type and WAV encoding for voicefx.
package audio

import (
	"errors"
	"fmt"
)

// Limits for clip validation.
const (
	MAX_SAMPLE_RATE = 192000
	MIN_SAMPLE_RATE = 1
)

const (
	ERR_FMT_SAMPLE_RATE_RANGE = "%w: sample rate must be between %d and %d Hz, got %d"
)

// Common errors for the audio package.
var (
	ErrInvalidClip  = errors.New("invalid audio clip")
	ErrEmptyClip    = errors.New("audio clip has no samples")
	ErrUnsupported  = errors.New("unsupported WAV encoding")
	ErrMalformedWAV = errors.New("malformed WAV data")
)

// Waveform is an ordered sequence of mono samples, nominally in [-1, 1].
// Transforms treat a Waveform as a value: they never write to their input.
type Waveform []float64

// Clone returns an independent copy of w.
func (w Waveform) Clone() Waveform {
	if w == nil {
		return nil
	}

	out := make(Waveform, len(w))
	copy(out, w)

	return out
}

// Clip is a waveform together with the sample rate it was synthesized at.
type Clip struct {
	Samples    Waveform
	SampleRate int
}

// Validate checks that the clip can be written to disk.
func (c Clip) Validate() error {
	if c.SampleRate < MIN_SAMPLE_RATE || c.SampleRate > MAX_SAMPLE_RATE {
		return fmt.Errorf(ERR_FMT_SAMPLE_RATE_RANGE,
			ErrInvalidClip, MIN_SAMPLE_RATE, MAX_SAMPLE_RATE, c.SampleRate)
	}

	if len(c.Samples) == 0 {
		return ErrEmptyClip
	}

	return nil
}

// WithSamples returns a clip with the same sample rate and new samples.
func (c Clip) WithSamples(samples Waveform) Clip {
	return Clip{Samples: samples, SampleRate: c.SampleRate}
}

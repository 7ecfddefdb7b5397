package effects

import (
	"fmt"
	"math"

	"github.com/book-expert/voicefx/internal/audio"
)

const (
	// PitchWindowSize is the STFT frame length used by ShiftPitch.
	PitchWindowSize = 2048
	// PitchHopSize is the STFT hop used by ShiftPitch.
	PitchHopSize = 512

	semitonesPerOctave = 12.0
)

// SemitoneRatio returns the frequency ratio for a shift of n semitones.
func SemitoneRatio(semitones float64) float64 {
	return math.Pow(2, semitones/semitonesPerOctave)
}

// ShiftPitch moves every STFT bin i to position i*2^(semitones/12), splitting
// its coefficient linearly between the two nearest target bins. Targets past
// the Nyquist bin are dropped. The result is hop*floor(len/hop) samples long.
//
// A zero shift maps every bin onto itself, so the output reproduces the input
// up to floating point error.
func ShiftPitch(wave audio.Waveform, semitones float64) (audio.Waveform, error) {
	if math.IsNaN(semitones) || math.IsInf(semitones, 0) {
		return nil, fmt.Errorf("%w: semitones must be finite: %v", ErrInvalidInput, semitones)
	}

	if len(wave) < PitchWindowSize {
		return nil, fmt.Errorf("%w: waveform of %d samples is shorter than the %d-sample window",
			ErrInvalidInput, len(wave), PitchWindowSize)
	}

	processor, err := newSTFTProcessor(PitchWindowSize, PitchHopSize)
	if err != nil {
		return nil, err
	}

	spectrogram, err := processor.forward(wave)
	if err != nil {
		return nil, fmt.Errorf("pitch analysis failed: %w", err)
	}

	ratio := SemitoneRatio(semitones)
	for f, frame := range spectrogram.frames {
		spectrogram.frames[f] = remapBins(frame, ratio)
	}

	out, err := processor.inverse(spectrogram)
	if err != nil {
		return nil, fmt.Errorf("pitch synthesis failed: %w", err)
	}

	return out, nil
}

// remapBins returns a new frame where source bin i contributes to target
// position i*ratio by linear interpolation. Targets below len(frame) keep
// their share in the Nyquist bin; the spill past it is dropped.
func remapBins(frame []complex128, ratio float64) []complex128 {
	last := len(frame) - 1
	shifted := make([]complex128, len(frame))

	for i, coeff := range frame {
		target := float64(i) * ratio
		if target >= float64(len(frame)) {
			continue
		}

		lo := int(target)
		frac := target - float64(lo)

		shifted[lo] += coeff * complex(1-frac, 0)
		if frac > 0 && lo < last {
			shifted[lo+1] += coeff * complex(frac, 0)
		}
	}

	return shifted
}

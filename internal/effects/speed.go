package effects

import (
	"fmt"
	"math"

	"github.com/book-expert/voicefx/internal/audio"
)

// ChangeSpeed resamples wave by picking sample floor(k*factor) for
// k = 0..ceil(len/factor)-1. There is no interpolation or anti-aliasing, so
// pitch moves with tempo. factor > 1 shortens the waveform.
func ChangeSpeed(wave audio.Waveform, factor float64) (audio.Waveform, error) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("%w: speed factor must be positive and finite: %v", ErrInvalidInput, factor)
	}

	if len(wave) == 0 {
		return audio.Waveform{}, nil
	}

	count := int(math.Ceil(float64(len(wave)) / factor))
	out := make(audio.Waveform, 0, count)

	for k := range count {
		idx := int(float64(k) * factor)
		if idx >= len(wave) {
			break
		}

		out = append(out, wave[idx])
	}

	return out, nil
}

package effects

import (
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/book-expert/voicefx/internal/audio"
)

// BoostEnergy scales every sample by factor. It does not clip.
func BoostEnergy(wave audio.Waveform, factor float64) audio.Waveform {
	out := make(audio.Waveform, len(wave))
	if len(wave) == 0 {
		return out
	}

	vecmath.ScaleBlock(out, wave, factor)

	return out
}

// AddDistortion soft-clips every sample with tanh(x*(1+amount)). The output
// stays strictly inside (-1, 1) even where tanh rounds to ±1 in float64.
func AddDistortion(wave audio.Waveform, amount float64) audio.Waveform {
	limit := math.Nextafter(1, 0)
	drive := 1 + amount
	out := make(audio.Waveform, len(wave))

	for i, sample := range wave {
		y := math.Tanh(sample * drive)
		out[i] = math.Max(-limit, math.Min(limit, y))
	}

	return out
}

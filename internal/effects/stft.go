package effects

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const stftNormFloor = 1e-12

// stft holds a centred short-time Fourier transform of a real signal.
// frames[f][k] is bin k (0..frameSize/2) of frame f.
type stft struct {
	frameSize int
	hop       int
	frames    [][]complex128
}

// stftProcessor owns the FFT plan, window and scratch buffers for one
// frame size. It is not safe for concurrent use.
type stftProcessor struct {
	frameSize int
	hop       int
	plan      *algofft.Plan[complex128]
	window    []float64
	windowSq  []float64
	real      []float64
	spectrum  []complex128
	timeFrame []complex128
}

func newSTFTProcessor(frameSize, hop int) (*stftProcessor, error) {
	if frameSize <= 0 || frameSize&(frameSize-1) != 0 {
		return nil, fmt.Errorf("%w: frame size must be a power of two: %d", ErrInvalidInput, frameSize)
	}

	if hop <= 0 || hop > frameSize {
		return nil, fmt.Errorf("%w: hop must be in [1, %d]: %d", ErrInvalidInput, frameSize, hop)
	}

	plan, err := algofft.NewPlan64(frameSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create FFT plan: %w", err)
	}

	window := periodicHann(frameSize)
	windowSq := make([]float64, frameSize)
	vecmath.MulBlock(windowSq, window, window)

	return &stftProcessor{
		frameSize: frameSize,
		hop:       hop,
		plan:      plan,
		window:    window,
		windowSq:  windowSq,
		real:      make([]float64, frameSize),
		spectrum:  make([]complex128, frameSize),
		timeFrame: make([]complex128, frameSize),
	}, nil
}

// forward analyses input with frames centred on multiples of hop. The signal
// is reflect-padded by frameSize/2 on both sides, so input must be at least
// frameSize/2+1 samples long.
func (p *stftProcessor) forward(input []float64) (*stft, error) {
	pad := p.frameSize / 2
	if len(input) <= pad {
		return nil, fmt.Errorf("%w: need more than %d samples, got %d", ErrInvalidInput, pad, len(input))
	}

	padded := reflectPad(input, pad)
	frameCount := 1 + len(input)/p.hop
	bins := p.frameSize/2 + 1
	frames := make([][]complex128, frameCount)

	for f := range frameCount {
		start := f * p.hop

		vecmath.MulBlock(p.real, padded[start:start+p.frameSize], p.window)

		for i, v := range p.real {
			p.spectrum[i] = complex(v, 0)
		}

		err := p.plan.Forward(p.spectrum, p.spectrum)
		if err != nil {
			return nil, fmt.Errorf("forward FFT failed: %w", err)
		}

		frame := make([]complex128, bins)
		copy(frame, p.spectrum[:bins])
		frames[f] = frame
	}

	return &stft{frameSize: p.frameSize, hop: p.hop, frames: frames}, nil
}

// inverse resynthesises a signal by windowed overlap-add normalised by the
// summed squared window. The centre padding is removed, giving
// hop*(frames-1) samples.
func (p *stftProcessor) inverse(s *stft) ([]float64, error) {
	if len(s.frames) == 0 {
		return nil, fmt.Errorf("%w: no frames to invert", ErrInvalidInput)
	}

	half := p.frameSize / 2
	fullLen := p.frameSize + p.hop*(len(s.frames)-1)
	output := make([]float64, fullLen)
	norm := make([]float64, fullLen)

	for f, frame := range s.frames {
		if len(frame) != half+1 {
			return nil, fmt.Errorf("%w: frame %d has %d bins, want %d", ErrInvalidInput, f, len(frame), half+1)
		}

		p.spectrum[0] = complex(real(frame[0]), 0)
		p.spectrum[half] = complex(real(frame[half]), 0)

		for k := 1; k < half; k++ {
			p.spectrum[k] = frame[k]
			p.spectrum[p.frameSize-k] = complex(real(frame[k]), -imag(frame[k]))
		}

		err := p.plan.Inverse(p.timeFrame, p.spectrum)
		if err != nil {
			return nil, fmt.Errorf("inverse FFT failed: %w", err)
		}

		for i, v := range p.timeFrame {
			p.real[i] = real(v)
		}

		vecmath.MulBlockInPlace(p.real, p.window)

		start := f * p.hop
		vecmath.AddBlockInPlace(output[start:start+p.frameSize], p.real)
		vecmath.AddBlockInPlace(norm[start:start+p.frameSize], p.windowSq)
	}

	for i := range output {
		if norm[i] > stftNormFloor {
			output[i] /= norm[i]
		}
	}

	return output[half : fullLen-half], nil
}

func periodicHann(size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size))
	}

	return out
}

// reflectPad mirrors pad samples around each edge without repeating the
// edge sample. Requires len(input) > pad.
func reflectPad(input []float64, pad int) []float64 {
	n := len(input)
	out := make([]float64, n+2*pad)
	copy(out[pad:], input)

	for i := 1; i <= pad; i++ {
		out[pad-i] = input[i]
		out[pad+n-1+i] = input[n-1-i]
	}

	return out
}

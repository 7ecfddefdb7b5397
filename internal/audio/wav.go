package audio

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/orcaman/writerseeker"
)

const (
	// OUTPUT_BIT_DEPTH is the PCM depth of every file voicefx writes.
	OUTPUT_BIT_DEPTH = 16

	wavFormatPCM = 1
	monoChannels = 1

	dirPermissions = 0o750
	tempPattern    = ".voicefx-*.wav"
)

// DecodeWAV parses PCM WAV bytes into a mono clip. Multi-channel input is
// downmixed by averaging; samples are scaled to [-1, 1).
func DecodeWAV(data []byte) (Clip, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return Clip{}, ErrMalformedWAV
	}

	if decoder.WavAudioFormat != wavFormatPCM {
		return Clip{}, fmt.Errorf("%w: audio format %d", ErrUnsupported, decoder.WavAudioFormat)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("%w: %w", ErrMalformedWAV, err)
	}

	channels := int(decoder.NumChans)
	if channels <= 0 || decoder.BitDepth == 0 {
		return Clip{}, fmt.Errorf("%w: %d channels at %d bits", ErrUnsupported, channels, decoder.BitDepth)
	}

	scale := math.Ldexp(1, int(decoder.BitDepth)-1)

	// 8-bit PCM is stored unsigned.
	offset := 0.0
	if decoder.BitDepth == 8 {
		offset = scale
	}

	frames := len(buf.Data) / channels
	samples := make(Waveform, frames)

	for i := range frames {
		sum := 0.0
		for ch := range channels {
			sum += float64(buf.Data[i*channels+ch]) - offset
		}

		samples[i] = sum / float64(channels) / scale
	}

	clip := Clip{Samples: samples, SampleRate: int(decoder.SampleRate)}

	err = clip.Validate()
	if err != nil {
		return Clip{}, err
	}

	return clip, nil
}

// EncodeWAV writes clip as 16-bit PCM mono. Samples outside [-1, 1] are
// clamped during quantisation.
func EncodeWAV(w io.WriteSeeker, clip Clip) error {
	err := clip.Validate()
	if err != nil {
		return err
	}

	encoder := wav.NewEncoder(w, clip.SampleRate, OUTPUT_BIT_DEPTH, monoChannels, wavFormatPCM)

	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: monoChannels, SampleRate: clip.SampleRate},
		Data:           quantize(clip.Samples),
		SourceBitDepth: OUTPUT_BIT_DEPTH,
	}

	err = encoder.Write(buf)
	if err != nil {
		return fmt.Errorf("failed to encode samples: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize WAV header: %w", err)
	}

	return nil
}

// EncodeWAVBytes is EncodeWAV into memory.
func EncodeWAVBytes(clip Clip) ([]byte, error) {
	buffer := &writerseeker.WriterSeeker{}

	err := EncodeWAV(buffer, clip)
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(buffer.Reader())
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded audio: %w", err)
	}

	return data, nil
}

// WriteFile encodes clip to path. The file is written to a temporary sibling
// and renamed into place, so path never holds a partial file.
func WriteFile(path string, clip Clip) (err error) {
	err = clip.Validate()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)

	err = os.MkdirAll(dir, dirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	err = EncodeWAV(tmp, clip)
	if err != nil {
		return err
	}

	err = tmp.Close()
	if err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	err = os.Rename(tmp.Name(), path)
	if err != nil {
		return fmt.Errorf("failed to move audio into place: %w", err)
	}

	return nil
}

func quantize(samples Waveform) []int {
	const full = 1<<(OUTPUT_BIT_DEPTH-1) - 1

	out := make([]int, len(samples))
	for i, s := range samples {
		if math.IsNaN(s) {
			continue
		}

		s = math.Max(-1, math.Min(1, s))
		out[i] = int(math.Round(s * full))
	}

	return out
}

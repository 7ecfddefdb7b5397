package audio_test

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/voicefx/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 22050

func sineClip(length int) audio.Clip {
	samples := make(audio.Waveform, length)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/testSampleRate)
	}

	return audio.Clip{Samples: samples, SampleRate: testSampleRate}
}

func TestEncodeDecodeWAV_PreservesSamplesWithinQuantisation(t *testing.T) {
	t.Parallel()

	clip := sineClip(1000)

	data, err := audio.EncodeWAVBytes(clip)
	require.NoError(t, err)
	require.Equal(t, "RIFF", string(data[:4]))

	decoded, err := audio.DecodeWAV(data)
	require.NoError(t, err)

	assert.Equal(t, testSampleRate, decoded.SampleRate)
	require.Len(t, decoded.Samples, len(clip.Samples))

	for i := range clip.Samples {
		assert.InDelta(t, clip.Samples[i], decoded.Samples[i], 1e-4, "sample %d", i)
	}
}

func TestEncodeWAVBytes_PatchesChunkSizes(t *testing.T) {
	t.Parallel()

	const sampleCount = 300

	data, err := audio.EncodeWAVBytes(sineClip(sampleCount))
	require.NoError(t, err)

	const headerSize = 44

	require.Len(t, data, headerSize+sampleCount*2)
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, uint32(len(data)-8), binary.LittleEndian.Uint32(data[4:8]), "RIFF size")
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(sampleCount*2), binary.LittleEndian.Uint32(data[40:44]), "data size")
}

func TestEncodeWAV_ClampsOutOfRangeSamples(t *testing.T) {
	t.Parallel()

	clip := audio.Clip{Samples: audio.Waveform{2, -3, 0.25}, SampleRate: testSampleRate}

	data, err := audio.EncodeWAVBytes(clip)
	require.NoError(t, err)

	decoded, err := audio.DecodeWAV(data)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, decoded.Samples[0], 1e-4)
	assert.InDelta(t, -1.0, decoded.Samples[1], 1e-4)
	assert.InDelta(t, 0.25, decoded.Samples[2], 1e-4)
}

func TestDecodeWAV_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := audio.DecodeWAV([]byte("definitely not a wav file"))
	require.ErrorIs(t, err, audio.ErrMalformedWAV)
}

func TestClipValidate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		clip    audio.Clip
		wantErr error
	}{
		{name: "valid", clip: sineClip(10), wantErr: nil},
		{name: "zero rate", clip: audio.Clip{Samples: audio.Waveform{0}, SampleRate: 0}, wantErr: audio.ErrInvalidClip},
		{name: "huge rate", clip: audio.Clip{Samples: audio.Waveform{0}, SampleRate: 500000}, wantErr: audio.ErrInvalidClip},
		{name: "empty", clip: audio.Clip{SampleRate: testSampleRate}, wantErr: audio.ErrEmptyClip},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := testCase.clip.Validate()
			if testCase.wantErr == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}

func TestWriteFile_CreatesDirectoriesAndLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.wav")

	err := audio.WriteFile(path, sineClip(512))
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFile_InvalidClipWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.wav")

	err := audio.WriteFile(path, audio.Clip{SampleRate: testSampleRate})
	require.ErrorIs(t, err, audio.ErrEmptyClip)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWaveformClone_IsIndependent(t *testing.T) {
	t.Parallel()

	original := audio.Waveform{1, 2, 3}
	clone := original.Clone()
	clone[0] = 42

	assert.InDelta(t, 1.0, original[0], 0)
	assert.Nil(t, audio.Waveform(nil).Clone())
}

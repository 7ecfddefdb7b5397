// Package pipeline runs a synthesis request end to end: synthesize, apply
// the requested voice modifications, and write the result.
package pipeline

import (
	"fmt"

	"github.com/book-expert/voicefx/internal/audio"
	"github.com/book-expert/voicefx/internal/core"
	"github.com/book-expert/voicefx/internal/effects"
	"github.com/book-expert/voicefx/internal/emotion"
	"github.com/book-expert/voicefx/internal/voice"
)

// Stage names used in error messages and logs.
const (
	stagePitch    = "pitch"
	stageSpeed    = "speed"
	stageEmotions = "emotions"
)

// ApplyModifications runs the stages present in opts in fixed order: pitch,
// speed, emotions. Absent stages are skipped. The input is never modified.
func ApplyModifications(wave audio.Waveform, opts voice.Options) (audio.Waveform, error) {
	out := wave.Clone()

	var err error

	if opts.Pitch != nil {
		out, err = effects.ShiftPitch(out, *opts.Pitch)
		if err != nil {
			return nil, stageError(stagePitch, err)
		}
	}

	if opts.Speed != nil {
		out, err = effects.ChangeSpeed(out, *opts.Speed)
		if err != nil {
			return nil, stageError(stageSpeed, err)
		}
	}

	if opts.Emotions != nil {
		out, err = emotion.Apply(out, *opts.Emotions)
		if err != nil {
			return nil, stageError(stageEmotions, err)
		}
	}

	return out, nil
}

func stageError(stage string, err error) error {
	return fmt.Errorf("%w: %s stage: %w", core.ErrTransform, stage, err)
}

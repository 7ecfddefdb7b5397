// Package emotion maps emotion scores onto a fixed, ordered sequence of
// waveform effects.
package emotion

import (
	"fmt"

	"github.com/book-expert/voicefx/internal/audio"
	"github.com/book-expert/voicefx/internal/effects"
)

// ActivationThreshold is the score a label must exceed for its rule to fire.
const ActivationThreshold = 50.0

// Effect parameters of the default policy.
const (
	happyPitchSemitones = 2.0
	happyEnergyFactor   = 1.2
	sadPitchSemitones   = -2.0
	// sadSpeedFactor is passed to effects.ChangeSpeed, where factors above 1
	// shorten the clip.
	sadSpeedFactor       = 1.2
	angryEnergyFactor    = 1.4
	angryDistortionDrive = 0.1
)

// Step is one named waveform transform inside a rule.
type Step struct {
	Name      string
	Transform func(audio.Waveform) (audio.Waveform, error)
}

// Rule fires its steps, in order, when the score for Label exceeds Threshold.
type Rule struct {
	Label     Label
	Threshold float64
	Steps     []Step
}

// Policy is an ordered list of rules. Rules are not exclusive: every rule
// that fires runs on the output of the rules before it.
type Policy []Rule

// DefaultPolicy returns the happiness, sadness, anger policy.
func DefaultPolicy() Policy {
	return Policy{
		{
			Label:     Happiness,
			Threshold: ActivationThreshold,
			Steps:     []Step{PitchStep(happyPitchSemitones), EnergyStep(happyEnergyFactor)},
		},
		{
			Label:     Sadness,
			Threshold: ActivationThreshold,
			Steps:     []Step{PitchStep(sadPitchSemitones), SpeedStep(sadSpeedFactor)},
		},
		{
			Label:     Anger,
			Threshold: ActivationThreshold,
			Steps:     []Step{EnergyStep(angryEnergyFactor), DistortionStep(angryDistortionDrive)},
		},
	}
}

// Apply runs the default policy.
func Apply(wave audio.Waveform, scores Scores) (audio.Waveform, error) {
	return DefaultPolicy().Apply(wave, scores)
}

// Apply runs every rule whose score exceeds its threshold. The input is
// never modified; when no rule fires a copy is returned.
func (p Policy) Apply(wave audio.Waveform, scores Scores) (audio.Waveform, error) {
	out := wave.Clone()

	for _, rule := range p {
		if scores.Score(rule.Label) <= rule.Threshold {
			continue
		}

		for _, step := range rule.Steps {
			next, err := step.Transform(out)
			if err != nil {
				return nil, fmt.Errorf("%s rule, %s: %w", rule.Label, step.Name, err)
			}

			out = next
		}
	}

	return out, nil
}

// Fired lists the labels whose rules would run for scores, in policy order.
func (p Policy) Fired(scores Scores) []Label {
	var labels []Label

	for _, rule := range p {
		if scores.Score(rule.Label) > rule.Threshold {
			labels = append(labels, rule.Label)
		}
	}

	return labels
}

// PitchStep shifts pitch by semitones.
func PitchStep(semitones float64) Step {
	return Step{
		Name: fmt.Sprintf("pitch %+g", semitones),
		Transform: func(w audio.Waveform) (audio.Waveform, error) {
			return effects.ShiftPitch(w, semitones)
		},
	}
}

// SpeedStep resamples by factor.
func SpeedStep(factor float64) Step {
	return Step{
		Name: fmt.Sprintf("speed x%g", factor),
		Transform: func(w audio.Waveform) (audio.Waveform, error) {
			return effects.ChangeSpeed(w, factor)
		},
	}
}

// EnergyStep scales amplitude by factor.
func EnergyStep(factor float64) Step {
	return Step{
		Name: fmt.Sprintf("energy x%g", factor),
		Transform: func(w audio.Waveform) (audio.Waveform, error) {
			return effects.BoostEnergy(w, factor), nil
		},
	}
}

// DistortionStep soft-clips with the given amount.
func DistortionStep(amount float64) Step {
	return Step{
		Name: fmt.Sprintf("distortion %g", amount),
		Transform: func(w audio.Waveform) (audio.Waveform, error) {
			return effects.AddDistortion(w, amount), nil
		},
	}
}

package emotion

import (
	"errors"
	"fmt"
	"math"
)

// Label names an emotion understood by the policy.
type Label string

// Known labels.
const (
	Happiness Label = "happiness"
	Sadness   Label = "sadness"
	Anger     Label = "anger"
)

// Score bounds.
const (
	MinScore = 0.0
	MaxScore = 100.0
)

// ErrScoreRange is returned for scores outside [MinScore, MaxScore].
var ErrScoreRange = errors.New("emotion score out of range")

// Scores holds per-label intensities. Missing labels are zero.
type Scores struct {
	Happiness float64 `json:"happiness,omitempty" toml:"happiness"`
	Sadness   float64 `json:"sadness,omitempty"   toml:"sadness"`
	Anger     float64 `json:"anger,omitempty"     toml:"anger"`
}

// FromMap builds Scores from a label-to-score map. Labels the policy does
// not know are ignored.
func FromMap(values map[string]float64) (Scores, error) {
	scores := Scores{
		Happiness: values[string(Happiness)],
		Sadness:   values[string(Sadness)],
		Anger:     values[string(Anger)],
	}

	err := scores.Validate()
	if err != nil {
		return Scores{}, err
	}

	return scores, nil
}

// Score returns the intensity for label, or 0 for unknown labels.
func (s Scores) Score(label Label) float64 {
	switch label {
	case Happiness:
		return s.Happiness
	case Sadness:
		return s.Sadness
	case Anger:
		return s.Anger
	default:
		return 0
	}
}

// Validate checks every score is finite and within range.
func (s Scores) Validate() error {
	for _, label := range []Label{Happiness, Sadness, Anger} {
		value := s.Score(label)
		if math.IsNaN(value) || value < MinScore || value > MaxScore {
			return fmt.Errorf("%w: %s = %v, want [%g, %g]", ErrScoreRange, label, value, MinScore, MaxScore)
		}
	}

	return nil
}

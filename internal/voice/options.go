// Package voice parses and validates the per-request voice options.
package voice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"github.com/book-expert/voicefx/internal/core"
	"github.com/book-expert/voicefx/internal/emotion"
)

// DefaultLanguage is used when neither the request nor the configuration
// names a language.
const DefaultLanguage = "en"

// Options are the caller-supplied voice settings. A nil field means the key
// was absent and the matching pipeline stage is skipped. Parse rejects an
// explicit null, so nil never stands for a present key.
type Options struct {
	Speaker  *string         `json:"speaker,omitempty"`
	Language *string         `json:"language,omitempty"`
	Pitch    *float64        `json:"pitch,omitempty"`
	Speed    *float64        `json:"speed,omitempty"`
	Emotions *emotion.Scores `json:"emotions,omitempty"`
}

// Parse decodes a JSON voice options object. Every failure wraps
// core.ErrInvalidOptions.
func Parse(raw string) (Options, error) {
	var opts Options

	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))

	err := decoder.Decode(&opts)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %w", core.ErrInvalidOptions, err)
	}

	if decoder.More() {
		return Options{}, fmt.Errorf("%w: trailing data after options object", core.ErrInvalidOptions)
	}

	err = rejectNulls(raw)
	if err != nil {
		return Options{}, err
	}

	err = opts.Validate()
	if err != nil {
		return Options{}, err
	}

	return opts, nil
}

// rejectNulls fails when any top-level key is present with a null value.
func rejectNulls(raw string) error {
	var fields map[string]json.RawMessage

	err := json.Unmarshal([]byte(raw), &fields)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidOptions, err)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	for _, key := range keys {
		if bytes.Equal(bytes.TrimSpace(fields[key]), []byte("null")) {
			return fmt.Errorf("%w: %s must not be null", core.ErrInvalidOptions, key)
		}
	}

	return nil
}

// Validate checks each present field against its domain.
func (o Options) Validate() error {
	if o.Pitch != nil && (math.IsNaN(*o.Pitch) || math.IsInf(*o.Pitch, 0)) {
		return fmt.Errorf("%w: pitch must be finite, got %v", core.ErrInvalidOptions, *o.Pitch)
	}

	if o.Speed != nil && (!(*o.Speed > 0) || math.IsInf(*o.Speed, 0)) {
		return fmt.Errorf("%w: speed must be positive and finite, got %v", core.ErrInvalidOptions, *o.Speed)
	}

	if o.Emotions != nil {
		err := o.Emotions.Validate()
		if err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidOptions, err)
		}
	}

	return nil
}

// SpeakerOr returns the requested speaker, or fallback when none was given.
func (o Options) SpeakerOr(fallback string) string {
	if o.Speaker == nil || *o.Speaker == "" {
		return fallback
	}

	return *o.Speaker
}

// LanguageOr returns the requested language, or fallback, or DefaultLanguage.
func (o Options) LanguageOr(fallback string) string {
	if o.Language != nil && *o.Language != "" {
		return *o.Language
	}

	if fallback != "" {
		return fallback
	}

	return DefaultLanguage
}

// IsEmpty reports whether no post-processing stage is requested.
func (o Options) IsEmpty() bool {
	return o.Pitch == nil && o.Speed == nil && o.Emotions == nil
}

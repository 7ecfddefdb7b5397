package pipeline

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/voicefx/internal/audio"
	"github.com/book-expert/voicefx/internal/core"
	"github.com/book-expert/voicefx/internal/voice"
)

// Defaults fill in the speaker and language a request leaves out.
type Defaults struct {
	Speaker  string
	Language string
}

// Renderer turns text plus voice options into a modified clip.
type Renderer struct {
	synthesizer core.Synthesizer
	defaults    Defaults
	log         *logger.Logger
}

// NewRenderer creates a Renderer backed by synthesizer.
func NewRenderer(synthesizer core.Synthesizer, defaults Defaults, log *logger.Logger) *Renderer {
	return &Renderer{
		synthesizer: synthesizer,
		defaults:    defaults,
		log:         log,
	}
}

// RenderClip synthesizes text and applies opts. Failures wrap
// core.ErrSynthesis or core.ErrTransform.
func (r *Renderer) RenderClip(ctx context.Context, text string, opts voice.Options) (audio.Clip, error) {
	requestID := uuid.NewString()
	speaker := opts.SpeakerOr(r.defaults.Speaker)
	language := opts.LanguageOr(r.defaults.Language)

	r.log.Info("[%s] Synthesizing %d characters (speaker %s, language %s)",
		requestID, len(text), speaker, language)

	clip, err := r.synthesizer.Synthesize(ctx, text, speaker, language)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %w", core.ErrSynthesis, err)
	}

	err = clip.Validate()
	if err != nil {
		return audio.Clip{}, fmt.Errorf("%w: %w", core.ErrSynthesis, err)
	}

	if opts.IsEmpty() {
		r.log.Info("[%s] No voice modifications requested", requestID)

		return clip, nil
	}

	modified, err := ApplyModifications(clip.Samples, opts)
	if err != nil {
		r.log.Error("[%s] Voice modification failed: %v", requestID, err)

		return audio.Clip{}, err
	}

	r.log.Info("[%s] Applied voice modifications: %d -> %d samples",
		requestID, len(clip.Samples), len(modified))

	return clip.WithSamples(modified), nil
}

// Render runs RenderClip and writes the result to outputPath as WAV. Nothing
// is written unless every stage succeeds.
func (r *Renderer) Render(ctx context.Context, text, outputPath string, opts voice.Options) error {
	clip, err := r.RenderClip(ctx, text, opts)
	if err != nil {
		return err
	}

	err = audio.WriteFile(outputPath, clip)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrWrite, err)
	}

	r.log.Info("Wrote %d samples at %d Hz to %s", len(clip.Samples), clip.SampleRate, outputPath)

	return nil
}

package synth

import (
	"context"
	"fmt"
	"sync"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicefx/internal/audio"
	"github.com/book-expert/voicefx/internal/config"
	"github.com/book-expert/voicefx/internal/core"
)

// HTTPSynthesizer implements core.Synthesizer on top of HTTPClient.
type HTTPSynthesizer struct {
	client *HTTPClient
	log    *logger.Logger
}

// NewHTTPSynthesizer wraps client.
func NewHTTPSynthesizer(client *HTTPClient, log *logger.Logger) *HTTPSynthesizer {
	return &HTTPSynthesizer{client: client, log: log}
}

// Synthesize requests speech for text and decodes the returned WAV.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, speaker, language string) (audio.Clip, error) {
	data, err := s.client.GenerateSpeech(ctx, Request{Text: text, Speaker: speaker, Language: language})
	if err != nil {
		return audio.Clip{}, err
	}

	clip, err := audio.DecodeWAV(data)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}

	s.log.Info("Synthesized %d samples at %d Hz (speaker %s, language %s)",
		len(clip.Samples), clip.SampleRate, speaker, language)

	return clip, nil
}

// Factory creates the synthesizer on first use.
type Factory func(ctx context.Context) (core.Synthesizer, error)

// HTTPFactory returns a Factory that connects to the configured service and,
// unless disabled, checks its health before the first request.
func HTTPFactory(cfg config.SynthesisConfig, log *logger.Logger) Factory {
	return func(ctx context.Context) (core.Synthesizer, error) {
		client := NewHTTPClient(cfg.ServiceURL, cfg.Timeout())

		if !cfg.SkipHealthCheck {
			err := client.HealthCheck(ctx)
			if err != nil {
				return nil, fmt.Errorf("TTS service health check failed: %w", err)
			}

			log.Info("TTS service at %s is healthy", cfg.ServiceURL)
		}

		return NewHTTPSynthesizer(client, log), nil
	}
}

// Handle is a lazily initialised synthesizer. The factory runs at most once;
// its result, success or failure, is reused for every later call.
type Handle struct {
	factory     Factory
	once        sync.Once
	synthesizer core.Synthesizer
	err         error
}

// NewHandle returns a Handle that builds its synthesizer with factory.
func NewHandle(factory Factory) *Handle {
	return &Handle{factory: factory}
}

// Synthesize initialises the underlying synthesizer if needed and delegates.
func (h *Handle) Synthesize(ctx context.Context, text, speaker, language string) (audio.Clip, error) {
	h.once.Do(func() {
		h.synthesizer, h.err = h.factory(ctx)
	})

	if h.err != nil {
		return audio.Clip{}, h.err
	}

	return h.synthesizer.Synthesize(ctx, text, speaker, language)
}

// Package core defines the interfaces shared by the voicefx components.
package core

import (
	"context"

	"github.com/book-expert/voicefx/internal/audio"
)

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// Synthesizer is the neural text-to-speech capability. Implementations own the
// model runtime; callers only consume the returned clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, speaker, language string) (audio.Clip, error)
}

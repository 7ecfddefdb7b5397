// Package worker provides a NATS worker that renders text jobs into WAV
// audio with the configured voice profile.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voicefx/internal/audio"
	"github.com/book-expert/voicefx/internal/core"
	"github.com/book-expert/voicefx/internal/text"
	"github.com/book-expert/voicefx/internal/voice"
)

const handleMessageTimeout = 5 * time.Minute

const audioKeySuffix = ".wav"

var (
	// ErrTextKeyEmpty indicates an event without a text object key.
	ErrTextKeyEmpty = errors.New("text key cannot be empty")
	// ErrTextEmpty indicates that the downloaded text has no content.
	ErrTextEmpty = errors.New("job text is empty")
)

// Renderer synthesizes and modifies one clip.
type Renderer interface {
	RenderClip(ctx context.Context, pageText string, opts voice.Options) (audio.Clip, error)
}

// NatsWorker listens for TextProcessedEvent jobs on a NATS subject and
// replies with an AudioChunkCreatedEvent for each rendered chunk.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	texts          core.ObjectStore
	audio          core.ObjectStore
	renderer       Renderer
	normalizer     *text.Normalizer
	profile        voice.Options
	log            *logger.Logger
}

// NewNatsWorker creates a worker. texts holds job input, audio receives the
// rendered WAV files and profile is applied to every job.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	texts core.ObjectStore,
	audioStore core.ObjectStore,
	renderer Renderer,
	profile voice.Options,
	log *logger.Logger,
) (*NatsWorker, error) {
	err := profile.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid voice profile: %w", err)
	}

	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		texts:          texts,
		audio:          audioStore,
		renderer:       renderer,
		normalizer:     text.NewNormalizer(),
		profile:        profile,
		log:            log,
	}, nil
}

// Run subscribes and blocks until ctx is cancelled, then drains.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	w.log.System("Listening for jobs on subject: %s", w.subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := parseEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	audioKey, err := w.processJob(ctx, event)
	if err != nil {
		w.log.Error("Failed to process job for workflow %s: %v", event.Header.WorkflowID, err)

		return
	}

	replyEvent := &events.AudioChunkCreatedEvent{
		Header:     event.Header,
		AudioKey:   audioKey,
		PageNumber: event.PageNumber,
		TotalPages: event.TotalPages,
	}

	err = publishReply(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for workflow %s: %v", event.Header.WorkflowID, err)

		return
	}

	w.log.Info("Workflow %s page %d/%d rendered to %s",
		event.Header.WorkflowID, event.PageNumber, event.TotalPages, audioKey)
}

// processJob downloads and normalizes the page text, renders it and uploads
// the WAV, returning the new audio key.
func (w *NatsWorker) processJob(ctx context.Context, event *events.TextProcessedEvent) (string, error) {
	textData, err := w.texts.Download(ctx, event.TextKey)
	if err != nil {
		return "", fmt.Errorf("failed to download text data for key '%s': %w", event.TextKey, err)
	}

	pageText := w.normalizer.Normalize(string(textData))
	if pageText == "" {
		return "", fmt.Errorf("%w: key '%s'", ErrTextEmpty, event.TextKey)
	}

	clip, err := w.renderer.RenderClip(ctx, pageText, w.jobOptions(event))
	if err != nil {
		return "", fmt.Errorf("failed to render text: %w", err)
	}

	audioData, err := audio.EncodeWAVBytes(clip)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrWrite, err)
	}

	audioKey := uuid.NewString() + audioKeySuffix

	err = w.audio.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	return audioKey, nil
}

// jobOptions is the worker profile with the event's voice as speaker.
func (w *NatsWorker) jobOptions(event *events.TextProcessedEvent) voice.Options {
	opts := w.profile
	if event.Voice != "" {
		speaker := event.Voice
		opts.Speaker = &speaker
	}

	return opts
}

func publishReply(msg *nats.Msg, replyEvent *events.AudioChunkCreatedEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = msg.Respond(replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event: %w", err)
	}

	return nil
}

func parseEvent(msg *nats.Msg) (*events.TextProcessedEvent, error) {
	var event events.TextProcessedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.TextKey == "" {
		return nil, ErrTextKeyEmpty
	}

	return &event, nil
}

// main package for the voicefx-worker service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/voicefx/internal/config"
	"github.com/book-expert/voicefx/internal/objectstore"
	"github.com/book-expert/voicefx/internal/pipeline"
	"github.com/book-expert/voicefx/internal/synth"
	"github.com/book-expert/voicefx/internal/worker"
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voicefx-worker.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	natsURL := cfg.NATS.URL
	if natsURL == "" {
		natsURL = nats.DefaultURL
	}

	natsConnection, err := nats.Connect(natsURL, nats.Name("voicefx-worker"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}
	defer natsConnection.Close()

	js, err := jetstream.New(natsConnection)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	textStore, err := objectstore.New(ctx, js, cfg.NATS.TextBucket, objectstore.ContentTypeText)
	if err != nil {
		return err
	}

	audioStore, err := objectstore.New(ctx, js, cfg.NATS.AudioBucket, objectstore.ContentTypeWAV)
	if err != nil {
		return err
	}

	handle := synth.NewHandle(synth.HTTPFactory(cfg.Synthesis, finalLog))
	renderer := pipeline.NewRenderer(handle, pipeline.Defaults{
		Speaker:  cfg.Synthesis.DefaultSpeaker,
		Language: cfg.Synthesis.DefaultLanguage,
	}, finalLog)

	natsWorker, err := worker.NewNatsWorker(
		natsConnection, cfg.NATS.JobSubject, textStore, audioStore, renderer, cfg.Voice.Options(), finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	finalLog.System("voicefx-worker initialized: text bucket %s, audio bucket %s",
		textStore.Bucket(), audioStore.Bucket())

	return natsWorker.Run(ctx)
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

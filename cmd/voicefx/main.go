// main package for the voicefx command.
//
// Usage: voicefx <text> <output_path> <voice_options_json>
//
// stdout carries exactly one JSON object; diagnostics go to the log file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicefx/internal/cli"
	"github.com/book-expert/voicefx/internal/config"
	"github.com/book-expert/voicefx/internal/pipeline"
	"github.com/book-expert/voicefx/internal/synth"
)

// configEnvVar names an explicit TOML file that overrides configurator discovery.
const configEnvVar = "VOICEFX_CONFIG"

const (
	bootstrapLogFile = "voicefx-bootstrap.log"
	logFile          = "voicefx.log"
)

func loadConfig(log *logger.Logger) *config.Config {
	path := os.Getenv(configEnvVar)
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err == nil {
			return cfg
		}

		log.Warn("Failed to load %s=%s, trying project configuration: %v", configEnvVar, path, err)
	}

	cfg, err := config.Load(log)
	if err != nil {
		log.Warn("No usable project configuration, using defaults: %v", err)

		return config.Default()
	}

	return cfg
}

func run() (int, error) {
	bootstrapLog, err := logger.New(os.TempDir(), bootstrapLogFile)
	if err != nil {
		return cli.ExitFailure, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	cfg := loadConfig(bootstrapLog)

	log, err := logger.New(cfg.Paths.BaseLogsDir, logFile)
	if err != nil {
		bootstrapLog.Error("Failed to create logger in %s: %v", cfg.Paths.BaseLogsDir, err)

		log = bootstrapLog
	} else {
		closeErr := bootstrapLog.Close()
		if closeErr != nil {
			log.Warn("Failed to close bootstrap logger: %v", closeErr)
		}
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	handle := synth.NewHandle(synth.HTTPFactory(cfg.Synthesis, log))
	renderer := pipeline.NewRenderer(handle, pipeline.Defaults{
		Speaker:  cfg.Synthesis.DefaultSpeaker,
		Language: cfg.Synthesis.DefaultLanguage,
	}, log)

	app := cli.NewApp(renderer, os.Stdout, log, cfg.CLI.StrictExitCode)

	return app.Run(context.Background(), os.Args[1:]), nil
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "voicefx: %v\n", err)

		encodeErr := json.NewEncoder(os.Stdout).Encode(cli.Response{Success: false, Error: err.Error()})
		if encodeErr != nil {
			fmt.Fprintf(os.Stderr, "voicefx: %v\n", encodeErr)
		}
	}

	os.Exit(code)
}

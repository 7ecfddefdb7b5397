// Package config provides the configuration structure for voicefx.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/voicefx/internal/emotion"
	"github.com/book-expert/voicefx/internal/voice"
)

// Defaults applied to fields the configuration leaves empty.
const (
	DefaultServiceURL     = "http://127.0.0.1:8000"
	DefaultTimeoutSeconds = 120
	DefaultSpeaker        = "p226"
	DefaultJobSubject     = "text.processed"
	DefaultTextBucket     = "TEXT_FILES"
	DefaultAudioBucket    = "AUDIO_FILES"
)

var (
	// ErrInvalidConfig indicates a configuration value outside its domain.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// SynthesisConfig describes the external model runtime.
type SynthesisConfig struct {
	ServiceURL      string `toml:"service_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	DefaultSpeaker  string `toml:"default_speaker"`
	DefaultLanguage string `toml:"default_language"`
	SkipHealthCheck bool   `toml:"skip_health_check"`
}

// Timeout returns the per-request timeout.
func (s SynthesisConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// VoiceConfig is the voice profile the worker applies to every job.
type VoiceConfig struct {
	Pitch    *float64        `toml:"pitch"`
	Speed    *float64        `toml:"speed"`
	Emotions *emotion.Scores `toml:"emotions"`
}

// Options converts the profile into request options.
func (v VoiceConfig) Options() voice.Options {
	return voice.Options{
		Pitch:    v.Pitch,
		Speed:    v.Speed,
		Emotions: v.Emotions,
	}
}

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL         string `toml:"url"`
	JobSubject  string `toml:"job_subject"`
	TextBucket  string `toml:"text_bucket"`
	AudioBucket string `toml:"audio_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// CLIConfig tunes the command-line contract.
type CLIConfig struct {
	// StrictExitCode makes the CLI exit non-zero after reporting a failure.
	StrictExitCode bool `toml:"strict_exit_code"`
}

// Config is the root configuration structure.
type Config struct {
	Synthesis SynthesisConfig `toml:"synthesis"`
	Voice     VoiceConfig     `toml:"voice"`
	NATS      NATSConfig      `toml:"nats"`
	Paths     PathsConfig     `toml:"paths"`
	CLI       CLIConfig       `toml:"cli"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config

	cfg.applyDefaults()

	return &cfg
}

// Load loads the configuration through the central configurator.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return finalize(&cfg)
}

// LoadFile reads a TOML configuration file from path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes TOML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	err := toml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return finalize(&cfg)
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Synthesis.ServiceURL == "" {
		return fmt.Errorf("%w: synthesis.service_url is empty", ErrInvalidConfig)
	}

	if c.Synthesis.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: synthesis.timeout_seconds must be positive, got %d",
			ErrInvalidConfig, c.Synthesis.TimeoutSeconds)
	}

	err := c.Voice.Options().Validate()
	if err != nil {
		return fmt.Errorf("%w: voice profile: %w", ErrInvalidConfig, err)
	}

	return nil
}

func finalize(cfg *Config) (*Config, error) {
	cfg.applyDefaults()

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Synthesis.ServiceURL == "" {
		c.Synthesis.ServiceURL = DefaultServiceURL
	}

	if c.Synthesis.TimeoutSeconds == 0 {
		c.Synthesis.TimeoutSeconds = DefaultTimeoutSeconds
	}

	if c.Synthesis.DefaultSpeaker == "" {
		c.Synthesis.DefaultSpeaker = DefaultSpeaker
	}

	if c.Synthesis.DefaultLanguage == "" {
		c.Synthesis.DefaultLanguage = voice.DefaultLanguage
	}

	if c.NATS.JobSubject == "" {
		c.NATS.JobSubject = DefaultJobSubject
	}

	if c.NATS.TextBucket == "" {
		c.NATS.TextBucket = DefaultTextBucket
	}

	if c.NATS.AudioBucket == "" {
		c.NATS.AudioBucket = DefaultAudioBucket
	}

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}
}

// Package config loads tool settings from an optional YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/rsandeep15/AnkiImageToDeck/internal/anki"
	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
)

// Image backends.
const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

// Defaults carried over from the original scripts.
const (
	DefaultWorkers             = 3
	DefaultImageModel          = "gpt-image-1"
	DefaultGatingModel         = "gpt-4.1-mini"
	DefaultGatingPromptID      = "pmpt_69194beaad7c819497842682bad97629040fc2c239b73233"
	DefaultGatingPromptVersion = "4"
	DefaultSpeechModel         = "gpt-4o-mini-tts"
	DefaultVoice               = "onyx"
	DefaultInstructions        = "Speak like a Korean native speaker"
	DefaultMediaDir            = "media"
)

// Config is the full tool configuration.
type Config struct {
	Anki   AnkiConfig   `yaml:"anki"`
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`
	Images ImagesConfig `yaml:"images"`
	Speech SpeechConfig `yaml:"speech"`
	Run    RunConfig    `yaml:"run"`
	Log    LogConfig    `yaml:"log"`
}

type AnkiConfig struct {
	URL      string `yaml:"url"`
	MediaDir string `yaml:"media_dir"`
}

func (c *AnkiConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.URL, validation.Required),
		validation.Field(&c.MediaDir, validation.Required),
	)
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
}

// ImagesConfig drives the images command.
type ImagesConfig struct {
	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
	Prompt  string `yaml:"prompt"`
	Workers int    `yaml:"workers"`

	SkipGating          bool   `yaml:"skip_gating"`
	GatingModel         string `yaml:"gating_model"`
	GatingPromptID      string `yaml:"gating_prompt_id"`
	GatingPromptVersion string `yaml:"gating_prompt_version"`
}

func (c *ImagesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendOpenAI, BackendGemini)),
		validation.Field(&c.Prompt, validation.Required, validation.By(hasPlaceholder)),
	)
}

func hasPlaceholder(value any) error {
	s, _ := value.(string)
	if !strings.Contains(s, enrich.PromptPlaceholder) {
		return fmt.Errorf("must contain %s", enrich.PromptPlaceholder)
	}
	return nil
}

// SpeechConfig drives the speech command.
type SpeechConfig struct {
	Model        string `yaml:"model"`
	Voice        string `yaml:"voice"`
	Instructions string `yaml:"instructions"`
	Workers      int    `yaml:"workers"`
}

func (c *SpeechConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.Voice, validation.Required),
	)
}

// RunConfig tunes the worker pool.
type RunConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
}

func (c *RunConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxRetries, validation.Min(0)),
		validation.Field(&c.RequestTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RateLimitRPS, validation.Min(0.0)),
	)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.In("auto", "text", "json")),
	)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Anki.Validate(); err != nil {
		return fmt.Errorf("anki: %w", err)
	}
	if err := c.Images.Validate(); err != nil {
		return fmt.Errorf("images: %w", err)
	}
	if err := c.Speech.Validate(); err != nil {
		return fmt.Errorf("speech: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Anki: AnkiConfig{
			URL:      anki.DefaultURL,
			MediaDir: DefaultMediaDir,
		},
		Images: ImagesConfig{
			Backend:             BackendOpenAI,
			Model:               DefaultImageModel,
			Prompt:              enrich.DefaultImagePrompt,
			Workers:             DefaultWorkers,
			GatingModel:         DefaultGatingModel,
			GatingPromptID:      DefaultGatingPromptID,
			GatingPromptVersion: DefaultGatingPromptVersion,
		},
		Speech: SpeechConfig{
			Model:        DefaultSpeechModel,
			Voice:        DefaultVoice,
			Instructions: DefaultInstructions,
			Workers:      DefaultWorkers,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if path is
// non-empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, target *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// RequireImageCredentials reports a configuration error when the selected image
// backend has no API key. The gemini backend also gates, so it needs only
// GEMINI_API_KEY.
func (c *Config) RequireImageCredentials() error {
	switch c.Images.Backend {
	case BackendGemini:
		if strings.TrimSpace(c.Gemini.APIKey) == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is not set", enrich.ErrConfiguration)
		}
	default:
		if strings.TrimSpace(c.OpenAI.APIKey) == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is not set", enrich.ErrConfiguration)
		}
	}
	return nil
}

// RequireOpenAI reports a configuration error when no OpenAI key is set.
func (c *Config) RequireOpenAI() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is not set", enrich.ErrConfiguration)
	}
	return nil
}

// IsConfigError reports whether err should exit with the configuration status.
func IsConfigError(err error) bool {
	return errors.Is(err, enrich.ErrConfiguration)
}

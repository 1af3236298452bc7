package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnv overlays environment variables on cfg. Unset or blank variables leave the
// current value untouched.
func applyEnv(cfg *Config) error {
	envString("ANKI_CONNECT_URL", &cfg.Anki.URL)
	envString("ANKI_MEDIA_DIR", &cfg.Anki.MediaDir)

	envString("OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	envString("OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	envString("GEMINI_API_KEY", &cfg.Gemini.APIKey)
	envString("GEMINI_BASE_URL", &cfg.Gemini.BaseURL)

	envString("ANKI_IMAGE_BACKEND", &cfg.Images.Backend)
	envString("ANKI_IMAGE_MODEL", &cfg.Images.Model)
	envString("ANKI_GATING_MODEL", &cfg.Images.GatingModel)
	envString("ANKI_SPEECH_MODEL", &cfg.Speech.Model)
	envString("ANKI_SPEECH_VOICE", &cfg.Speech.Voice)

	envString("LOG_LEVEL", &cfg.Log.Level)
	envString("LOG_FORMAT", &cfg.Log.Format)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	var err error
	if cfg.Images.Workers, err = envInt("ANKI_IMAGE_WORKERS", cfg.Images.Workers); err != nil {
		return err
	}
	if cfg.Speech.Workers, err = envInt("ANKI_SPEECH_WORKERS", cfg.Speech.Workers); err != nil {
		return err
	}
	if cfg.Images.SkipGating, err = envBool("ANKI_SKIP_GATING", cfg.Images.SkipGating); err != nil {
		return err
	}
	if cfg.Run.MaxRetries, err = envInt("MAX_RETRIES", cfg.Run.MaxRetries); err != nil {
		return err
	}
	if cfg.Run.RequestTimeout, err = envDuration("REQUEST_TIMEOUT", cfg.Run.RequestTimeout); err != nil {
		return err
	}
	if cfg.Run.RateLimitRPS, err = envFloat("RATE_LIMIT_RPS", cfg.Run.RateLimitRPS); err != nil {
		return err
	}
	return nil
}

func envString(varName string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(varName)); v != "" {
		*dst = v
	}
}

func envInt(varName string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return n, nil
}

func envFloat(varName string, def float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return f, nil
}

func envDuration(varName string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return d, nil
}

func envBool(varName string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return b, nil
}

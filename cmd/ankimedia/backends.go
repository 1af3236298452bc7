package main

import (
	"context"

	"github.com/rsandeep15/AnkiImageToDeck/internal/backend/gemini"
	"github.com/rsandeep15/AnkiImageToDeck/internal/backend/openai"
	"github.com/rsandeep15/AnkiImageToDeck/internal/config"
	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
)

// imageBackends returns a factory that builds fresh client handles for every task.
// The oracle is nil when gating is off.
func imageBackends(cfg *config.Config, store *media.Store, gating bool) enrich.BackendFactory {
	if cfg.Images.Backend == config.BackendGemini {
		gcfg := gemini.Config{
			APIKey:     cfg.Gemini.APIKey,
			TextModel:  cfg.Gemini.TextModel,
			ImageModel: cfg.Gemini.ImageModel,
			BaseURL:    cfg.Gemini.BaseURL,
		}
		return func(ctx context.Context) (media.Oracle, media.Generator, error) {
			b, err := gemini.New(ctx, gcfg, store)
			if err != nil {
				return nil, nil, err
			}
			if !gating {
				return nil, b, nil
			}
			return b, b, nil
		}
	}

	ocfg := openAIConfig(cfg)
	images := cfg.Images
	return func(ctx context.Context) (media.Oracle, media.Generator, error) {
		client, err := openai.NewClient(ocfg)
		if err != nil {
			return nil, nil, err
		}
		gen := &openai.ImageGenerator{Client: client, Model: images.Model, Store: store}
		if !gating {
			return nil, gen, nil
		}
		gate := &openai.Gate{
			Client:        client,
			PromptID:      images.GatingPromptID,
			PromptVersion: images.GatingPromptVersion,
			Model:         images.GatingModel,
		}
		return gate, gen, nil
	}
}

// speechBackends builds an OpenAI speech generator per task. Speech has no gating.
func speechBackends(cfg *config.Config, store *media.Store) enrich.BackendFactory {
	ocfg := openAIConfig(cfg)
	speech := cfg.Speech
	return func(ctx context.Context) (media.Oracle, media.Generator, error) {
		client, err := openai.NewClient(ocfg)
		if err != nil {
			return nil, nil, err
		}
		return nil, &openai.SpeechGenerator{
			Client:       client,
			Model:        speech.Model,
			Voice:        speech.Voice,
			Instructions: speech.Instructions,
			Store:        store,
		}, nil
	}
}

func openAIConfig(cfg *config.Config) openai.Config {
	return openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
	}
}

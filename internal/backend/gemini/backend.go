// Package gemini gates and illustrates notes with the Gemini API.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/core"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
)

type Config struct {
	APIKey     string
	TextModel  string
	ImageModel string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Backend is both a media.Oracle and an image media.Generator.
type Backend struct {
	client     *genai.Client
	textModel  string
	imageModel string
	store      *media.Store
}

var (
	_ media.Oracle    = (*Backend)(nil)
	_ media.Generator = (*Backend)(nil)
)

func New(ctx context.Context, cfg Config, store *media.Store) (*Backend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if store == nil {
		return nil, errors.New("gemini: media store is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Backend{
		client:     client,
		textModel:  firstNonEmpty(cfg.TextModel, DefaultTextModel),
		imageModel: firstNonEmpty(cfg.ImageModel, DefaultImageModel),
		store:      store,
	}, nil
}

func (b *Backend) ShouldEnrich(ctx context.Context, front, back string) (bool, error) {
	resp, err := b.client.Models.GenerateContent(
		ctx,
		b.textModel,
		genai.Text(media.GatingPrompt(front, back)),
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return false, classifyErr(err)
	}
	return media.ParseDecision(resp.Text()), nil
}

func (b *Backend) Generate(ctx context.Context, prompt string, noteID int64) (string, error) {
	resp, err := b.client.Models.GenerateImages(
		ctx,
		b.imageModel,
		prompt,
		&genai.GenerateImagesConfig{NumberOfImages: 1},
	)
	if err != nil {
		return "", classifyErr(err)
	}
	img := firstImage(resp)
	if len(img) == 0 {
		return "", errors.New("gemini: response contained no image data")
	}
	path, err := b.store.Write(noteID, media.KindImage, bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("store image for note %d: %w", noteID, err)
	}
	return path, nil
}

func firstImage(resp *genai.GenerateImagesResponse) []byte {
	if resp == nil {
		return nil
	}
	for _, gi := range resp.GeneratedImages {
		if gi != nil && gi.Image != nil && len(gi.Image.ImageBytes) > 0 {
			return gi.Image.ImageBytes
		}
	}
	return nil
}

func classifyErr(err error) error {
	// Wrap transient failures so the worker pool will retry with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &core.TransientError{Err: err}
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

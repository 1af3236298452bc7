package openai

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
)

// ImageGenerator writes one generated image per note into the media store.
type ImageGenerator struct {
	Client *Client
	Model  string
	Store  *media.Store
}

var _ media.Generator = (*ImageGenerator)(nil)

func (g *ImageGenerator) Generate(ctx context.Context, prompt string, noteID int64) (string, error) {
	img, err := g.Client.Images(ctx, g.Model, prompt)
	if err != nil {
		return "", err
	}
	path, err := g.Store.Write(noteID, media.KindImage, bytes.NewReader(img))
	if err != nil {
		return "", fmt.Errorf("store image for note %d: %w", noteID, err)
	}
	return path, nil
}

// SpeechGenerator streams synthesized audio for a note into the media store.
type SpeechGenerator struct {
	Client       *Client
	Model        string
	Voice        string
	Instructions string
	Store        *media.Store
}

var _ media.Generator = (*SpeechGenerator)(nil)

func (g *SpeechGenerator) Generate(ctx context.Context, text string, noteID int64) (string, error) {
	body, err := g.Client.Speech(ctx, SpeechRequest{
		Model:        g.Model,
		Voice:        g.Voice,
		Input:        text,
		Instructions: g.Instructions,
	})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = body.Close()
	}()
	path, err := g.Store.Write(noteID, media.KindSpeech, body)
	if err != nil {
		return "", classifyErr(fmt.Errorf("store audio for note %d: %w", noteID, err))
	}
	return path, nil
}

// Gate asks a model whether a note deserves an illustration. With a PromptID it uses
// the stored prompt (variables front and back); otherwise it sends GatingPrompt to
// Model.
type Gate struct {
	Client        *Client
	PromptID      string
	PromptVersion string
	Model         string
}

var _ media.Oracle = (*Gate)(nil)

func (g *Gate) ShouldEnrich(ctx context.Context, front, back string) (bool, error) {
	req := ResponseRequest{Model: g.Model, Input: media.GatingPrompt(front, back)}
	if g.PromptID != "" {
		req = ResponseRequest{Prompt: &PromptRef{
			ID:        g.PromptID,
			Version:   g.PromptVersion,
			Variables: map[string]string{"front": front, "back": back},
		}}
	}
	text, err := g.Client.Respond(ctx, req)
	if err != nil {
		return false, err
	}
	return media.ParseDecision(text), nil
}

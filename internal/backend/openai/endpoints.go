package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
)

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n,omitempty"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Images generates one image and returns the decoded PNG bytes.
func (c *Client) Images(ctx context.Context, model, prompt string) ([]byte, error) {
	var out imageResponse
	req := imageRequest{Model: model, Prompt: prompt, N: 1}
	if err := c.doJSON(ctx, "images", http.MethodPost, "/v1/images/generations", req, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, errors.New("openai images: response contained no image data")
	}
	b, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai images: decode b64_json: %w", err)
	}
	return b, nil
}

// SpeechRequest describes one text-to-speech call.
type SpeechRequest struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
	Format       string `json:"response_format,omitempty"`
}

// Speech synthesizes audio and returns the streamed body. The caller closes it.
func (c *Client) Speech(ctx context.Context, req SpeechRequest) (io.ReadCloser, error) {
	if req.Format == "" {
		req.Format = "mp3"
	}
	resp, err := c.send(ctx, "speech", http.MethodPost, "/v1/audio/speech", req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// PromptRef points at a stored prompt.
type PromptRef struct {
	ID        string            `json:"id"`
	Version   string            `json:"version,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

// ResponseRequest is either a stored prompt reference or a model plus input.
type ResponseRequest struct {
	Prompt *PromptRef `json:"prompt,omitempty"`
	Model  string     `json:"model,omitempty"`
	Input  string     `json:"input,omitempty"`
}

type responseBody struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

func (r responseBody) text() string {
	if r.OutputText != "" {
		return r.OutputText
	}
	var b strings.Builder
	for _, item := range r.Output {
		for _, piece := range item.Content {
			b.WriteString(piece.Text)
		}
	}
	return b.String()
}

// Respond runs one Responses API call and returns the concatenated output text.
func (c *Client) Respond(ctx context.Context, req ResponseRequest) (string, error) {
	if req.Prompt == nil && strings.TrimSpace(req.Model) == "" {
		return "", errors.New("openai responses: prompt reference or model required")
	}
	var out responseBody
	if err := c.doJSON(ctx, "responses", http.MethodPost, "/v1/responses", req, &out); err != nil {
		return "", err
	}
	return out.text(), nil
}

type modelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Models lists the ids of every model the key can use.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	var out modelList
	if err := c.doJSON(ctx, "models", http.MethodGet, "/v1/models", nil, &out); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		if id := strings.TrimSpace(m.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ModelKind groups model ids by what they produce.
type ModelKind string

const (
	ModelText  ModelKind = "text"
	ModelAudio ModelKind = "audio"
	ModelImage ModelKind = "image"
)

// ParseModelKind validates a kind name.
func ParseModelKind(s string) (ModelKind, error) {
	switch k := ModelKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ModelText, ModelAudio, ModelImage:
		return k, nil
	default:
		return "", fmt.Errorf("unsupported model kind %q (want text, audio or image)", s)
	}
}

var textBlocked = []string{"tts", "audio", "image", "embed", "embedding", "speech"}

// FilterModels returns the sorted ids matching kind.
func FilterModels(ids []string, kind ModelKind) []string {
	var match func(string) bool
	switch kind {
	case ModelText:
		match = func(id string) bool {
			if !strings.HasPrefix(id, "gpt") && !strings.HasPrefix(id, "o") {
				return false
			}
			for _, tok := range textBlocked {
				if strings.Contains(id, tok) {
					return false
				}
			}
			return true
		}
	case ModelAudio:
		match = func(id string) bool {
			return strings.Contains(id, "tts") || strings.Contains(id, "audio")
		}
	case ModelImage:
		match = func(id string) bool {
			return strings.Contains(id, "image") || strings.HasPrefix(id, "dall-e")
		}
	default:
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if match(id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

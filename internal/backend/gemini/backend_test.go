package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"google.golang.org/genai"

	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/core"
)

type timeoutNetErr struct{}

func (timeoutNetErr) Error() string   { return "i/o timeout" }
func (timeoutNetErr) Timeout() bool   { return true }
func (timeoutNetErr) Temporary() bool { return false }

func TestClassifyErr(t *testing.T) {
	tests := []struct {
		name          string
		in            error
		wantTransient bool
	}{
		{name: "nil", in: nil, wantTransient: false},
		{name: "api_429", in: genai.APIError{Code: 429}, wantTransient: true},
		{name: "api_503", in: genai.APIError{Code: 503}, wantTransient: true},
		{name: "api_400", in: genai.APIError{Code: 400}, wantTransient: false},
		{name: "net_timeout", in: timeoutNetErr{}, wantTransient: true},
		{name: "plain", in: errors.New("bad prompt"), wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyErr(tt.in)
			var te *core.TransientError
			isTransient := errors.As(got, &te)
			if isTransient != tt.wantTransient {
				t.Fatalf("transient=%v want=%v (err=%T %v)", isTransient, tt.wantTransient, got, got)
			}
		})
	}
}

func TestNew_RequiresKey(t *testing.T) {
	store, err := media.NewStore(afero.NewMemMapFs(), "/media")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := New(context.Background(), Config{}, store); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestFirstImage(t *testing.T) {
	if got := firstImage(nil); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	resp := &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{
			nil,
			{Image: &genai.Image{}},
			{Image: &genai.Image{ImageBytes: []byte("png")}},
		},
	}
	if got := string(firstImage(resp)); got != "png" {
		t.Fatalf("firstImage = %q, want png", got)
	}
}

// Package media names, stores and describes generated note media.
package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/rsandeep15/AnkiImageToDeck/internal/anki"
)

// Kind is a type of generated media.
type Kind string

const (
	KindImage  Kind = "image"
	KindSpeech Kind = "speech"
)

// Ext is the artifact file extension, including the dot.
func (k Kind) Ext() string {
	switch k {
	case KindSpeech:
		return ".mp3"
	default:
		return ".png"
	}
}

// Dir is the subdirectory of the media root holding artifacts of this kind.
func (k Kind) Dir() string {
	switch k {
	case KindSpeech:
		return "audio"
	default:
		return "images"
	}
}

// Slot is the updateNoteFields key used to attach artifacts of this kind.
func (k Kind) Slot() anki.MediaSlot {
	if k == KindSpeech {
		return anki.SlotAudio
	}
	return anki.SlotPicture
}

// Filename is the deterministic artifact name for a note.
func (k Kind) Filename(noteID int64) string {
	return fmt.Sprintf("%d%s", noteID, k.Ext())
}

// Generator produces one artifact for a note and returns its absolute path. It makes
// a single external call and does not retry.
type Generator interface {
	Generate(ctx context.Context, prompt string, noteID int64) (string, error)
}

// Oracle decides whether a note deserves an illustration.
type Oracle interface {
	ShouldEnrich(ctx context.Context, front, back string) (bool, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, noteID int64) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, noteID int64) (string, error) {
	return f(ctx, prompt, noteID)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, front, back string) (bool, error)

func (f OracleFunc) ShouldEnrich(ctx context.Context, front, back string) (bool, error) {
	return f(ctx, front, back)
}

// ParseDecision interprets a gating answer. Only "true" (after trimming and
// lowercasing) is positive.
func ParseDecision(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == "true"
}

// GatingPrompt is the instruction sent to a model when no stored gating prompt is
// configured. The answer is read with ParseDecision.
func GatingPrompt(front, back string) string {
	return "Read this pairing of words " + front + " and " + back + " and determine if an image would be " +
		"helpful to memorize the word in Anki. If a word sounds really similar in both languages, reply 'false'. " +
		"Single word nouns are likely to be useful to have a visual. " +
		"You must reply 'true' or 'false' without any other explanation in all lowercase."
}

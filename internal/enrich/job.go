package enrich

import (
	"strings"

	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/internal/textclean"
)

// PromptPlaceholder is replaced with the prepared note text when rendering a prompt.
const PromptPlaceholder = "{text}"

const DefaultImagePrompt = "Generate a memory aid illustration for this Anki flashcard concept: {text}. " +
	"Do not include any words or letters. Favor stylized anime/cartoon aesthetics, not photorealism."

// Job describes one kind of enrichment.
type Job struct {
	Kind media.Kind

	// SourceField is the field whose text drives generation.
	SourceField string
	// TargetField receives the attachment.
	TargetField string

	Gating         bool
	PromptTemplate string

	// StripExistingMedia removes <img> tags from both fields before write-back.
	StripExistingMedia bool

	// PrepareText turns the source field into generation input. Empty output skips
	// the candidate with EmptyReason.
	PrepareText func(string) string
	EmptyReason string
}

// ImageJob illustrates the back of each card and attaches the image to the front.
func ImageJob(template string, gating bool) Job {
	if strings.TrimSpace(template) == "" {
		template = DefaultImagePrompt
	}
	return Job{
		Kind:               media.KindImage,
		SourceField:        FieldBack,
		TargetField:        FieldFront,
		Gating:             gating,
		PromptTemplate:     strings.TrimSpace(template),
		StripExistingMedia: true,
		PrepareText:        textclean.Sanitize,
		EmptyReason:        ReasonNoContent,
	}
}

// SpeechJob reads the front of each card aloud and attaches the audio to the front.
func SpeechJob() Job {
	return Job{
		Kind:           media.KindSpeech,
		SourceField:    FieldFront,
		TargetField:    FieldFront,
		PromptTemplate: PromptPlaceholder,
		PrepareText:    textclean.SpeechText,
		EmptyReason:    ReasonNoSpeakableText,
	}
}

func (j Job) prepare(s string) string {
	if j.PrepareText == nil {
		return textclean.Sanitize(s)
	}
	return j.PrepareText(s)
}

func (j Job) render(text string) string {
	if j.PromptTemplate == "" {
		return text
	}
	return strings.ReplaceAll(j.PromptTemplate, PromptPlaceholder, text)
}

func (j Job) emptyReason() string {
	if j.EmptyReason == "" {
		return ReasonNoContent
	}
	return j.EmptyReason
}

func (j Job) targetField() string {
	if j.TargetField == "" {
		return FieldFront
	}
	return j.TargetField
}

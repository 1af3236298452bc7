package enrich

import (
	"context"

	"github.com/rsandeep15/AnkiImageToDeck/internal/anki"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
)

// Field names of the Basic note type.
const (
	FieldFront = "Front"
	FieldBack  = "Back"
)

// Candidate is one note considered for enrichment during a run.
type Candidate struct {
	NoteID int64
	Front  string
	Back   string
}

func (c Candidate) field(name string) string {
	if name == FieldFront {
		return c.Front
	}
	return c.Back
}

// CandidatesFromNotes keeps store order. Missing fields become empty strings.
func CandidatesFromNotes(notes []anki.Note) []Candidate {
	out := make([]Candidate, 0, len(notes))
	for _, n := range notes {
		out = append(out, Candidate{
			NoteID: n.ID,
			Front:  n.Field(FieldFront),
			Back:   n.Field(FieldBack),
		})
	}
	return out
}

type Status string

const (
	StatusAdded Status = "added"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Skip reasons.
const (
	ReasonNoContent           = "no descriptive content"
	ReasonNoSpeakableText     = "no speakable text"
	ReasonGatingDeclined      = "gating declined"
	ReasonGatingDeclinedMedia = "gating declined; media removed"
)

// Outcome is the result of processing one candidate. Exactly one is produced per
// candidate.
type Outcome struct {
	Status Status
	NoteID int64

	// Text identifies the candidate in human-readable output.
	Text string

	// Reason is set for skips.
	Reason string

	// Err is set for errors.
	Err error

	// Path is the artifact attached to the note, set for added outcomes.
	Path string
}

// Summary tallies the outcomes of a run. Added+Skipped+Failed == Total.
type Summary struct {
	Added   int
	Skipped int
	Failed  int
	Total   int

	// Empty is true when the deck had no candidates and no work was dispatched.
	Empty bool
}

func (s *Summary) record(o Outcome) {
	switch o.Status {
	case StatusAdded:
		s.Added++
	case StatusSkip:
		s.Skipped++
	default:
		s.Failed++
	}
}

// NoteStore is the subset of the AnkiConnect client the pipeline needs.
type NoteStore interface {
	FindCandidates(ctx context.Context, deck string) ([]anki.Note, error)
	UpdateFields(ctx context.Context, noteID int64, fields map[string]string, att *anki.Attachment) error
}

// BackendFactory builds the gating oracle and media generator for one candidate
// task. It runs once per task so no two tasks share a backend handle. The oracle may
// be nil when gating is disabled.
type BackendFactory func(ctx context.Context) (media.Oracle, media.Generator, error)

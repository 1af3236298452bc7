// Package enrich attaches generated media to the notes of a deck.
//
// Each candidate moves through the same fixed sequence: sanitize the source text,
// optionally ask the gating oracle, generate the artifact, and write it back to the
// note. A candidate ends in exactly one Outcome, and a failure in one candidate never
// stops the others.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/rsandeep15/AnkiImageToDeck/internal/anki"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/internal/textclean"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/worker"
)

type Options struct {
	// Workers is clamped to at least 1 and at most the candidate count.
	Workers        int
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64
}

// Pipeline runs one Job over a deck.
type Pipeline struct {
	Store     NoteStore
	Artifacts *media.Store
	Backends  BackendFactory
	Job       Job
	Options   Options
	Logger    *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// preflight builds one set of backend handles so missing credentials surface before
// any candidate is dispatched. The handles are discarded.
func (p *Pipeline) preflight(ctx context.Context) error {
	if p.Store == nil {
		return configError("note store is required")
	}
	if p.Backends == nil {
		return configError("backend factory is required")
	}
	oracle, gen, err := p.Backends(ctx)
	if err != nil {
		if errors.Is(err, ErrConfiguration) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if gen == nil {
		return configError("no %s generator configured", p.Job.Kind)
	}
	if p.Job.Gating && oracle == nil {
		return configError("gating is enabled but no gating oracle is configured")
	}
	return nil
}

// Run enriches every note in deck. onOutcome, when non-nil, is called once per
// candidate in completion order from the calling goroutine.
//
// A failed deck fetch or invalid configuration aborts the run before any work is
// dispatched. A deck with no notes returns Summary{Empty: true} without starting the
// worker pool.
func (p *Pipeline) Run(ctx context.Context, deck string, onOutcome func(Outcome)) (Summary, error) {
	logger := p.logger().With("deck", deck, "kind", string(p.Job.Kind))

	if err := p.preflight(ctx); err != nil {
		return Summary{}, err
	}

	fetchStart := time.Now()
	notes, err := p.Store.FindCandidates(ctx, deck)
	if err != nil {
		return Summary{}, fmt.Errorf("fetch notes for deck %q: %w", deck, err)
	}
	logger.Info("fetched notes", "count", len(notes), "duration", time.Since(fetchStart).Round(time.Millisecond))
	if len(notes) == 0 {
		return Summary{Empty: true}, nil
	}

	if p.Artifacts != nil {
		if err := p.Artifacts.EnsureDir(p.Job.Kind); err != nil {
			return Summary{}, err
		}
	}

	candidates := CandidatesFromNotes(notes)
	summary := Summary{Total: len(candidates)}
	logger.Info(
		"dispatching candidates",
		"candidates", len(candidates),
		"workers", worker.PoolSize(p.Options.Workers, len(candidates)),
		"gating", p.Job.Gating,
		"max_retries", p.Options.MaxRetries,
	)

	runStart := time.Now()
	_, err = worker.ProcessAllWithCallback(
		ctx,
		candidates,
		p.processTask,
		func(res worker.Result[Candidate, Outcome]) error {
			o := res.Output
			if res.Err != nil {
				o = p.errorOutcome(res.Input, res.Err)
			}
			summary.record(o)
			logOutcome(logger, o)
			if onOutcome != nil {
				onOutcome(o)
			}
			return nil
		},
		worker.Options{
			Workers:           p.Options.Workers,
			MaxRetries:        p.Options.MaxRetries,
			RequestTimeout:    p.Options.RequestTimeout,
			RateLimitRPS:      p.Options.RateLimitRPS,
			BackoffInitial:    200 * time.Millisecond,
			BackoffMax:        2 * time.Second,
			BackoffJitterFrac: 0.2,
		},
	)
	if err != nil {
		return summary, err
	}
	logger.Info(
		"run complete",
		"added", summary.Added,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"duration", time.Since(runStart).Round(time.Millisecond),
	)
	return summary, nil
}

// processTask is the worker-pool entry point. It builds fresh backend handles for
// the task and returns the candidate fault as an error so transient failures can be
// retried.
func (p *Pipeline) processTask(ctx context.Context, c Candidate) (Outcome, error) {
	oracle, gen, err := p.Backends(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return p.process(ctx, oracle, gen, c)
}

// ProcessCandidate runs the per-candidate sequence with the given backends and
// always returns an Outcome; faults, including panics, become StatusError.
func (p *Pipeline) ProcessCandidate(ctx context.Context, oracle media.Oracle, gen media.Generator, c Candidate) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = p.errorOutcome(c, &worker.PanicError{Value: r})
		}
	}()
	o, err := p.process(ctx, oracle, gen, c)
	if err != nil {
		return p.errorOutcome(c, err)
	}
	return o
}

func (p *Pipeline) process(ctx context.Context, oracle media.Oracle, gen media.Generator, c Candidate) (Outcome, error) {
	job := p.Job
	front, back := c.Front, c.Back
	if job.StripExistingMedia {
		front = textclean.StripEmbeddedMedia(front)
		back = textclean.StripEmbeddedMedia(back)
	}
	cleaned := Candidate{NoteID: c.NoteID, Front: front, Back: back}
	label := cleaned.field(job.SourceField)

	text := job.prepare(label)
	if text == "" {
		return skipOutcome(c.NoteID, label, job.emptyReason()), nil
	}

	if job.Gating {
		if oracle == nil {
			return Outcome{}, configError("gating is enabled but no gating oracle is configured")
		}
		gateFront := textclean.Sanitize(front)
		if gateFront == "" {
			gateFront = front
		}
		var ok bool
		err := p.trace(ctx, "gate", c.NoteID, func(ctx context.Context) error {
			var err error
			ok, err = oracle.ShouldEnrich(ctx, gateFront, textclean.Sanitize(back))
			return err
		})
		if err != nil {
			return Outcome{}, &GenerationError{Stage: "gating", NoteID: c.NoteID, Err: err}
		}
		if !ok {
			if !job.StripExistingMedia || !(textclean.HasEmbeddedMedia(c.Front) || textclean.HasEmbeddedMedia(c.Back)) {
				return skipOutcome(c.NoteID, label, ReasonGatingDeclined), nil
			}
			if err := p.Store.UpdateFields(ctx, c.NoteID, fieldsOf(cleaned), nil); err != nil {
				return Outcome{}, fmt.Errorf("remove existing media: %w", err)
			}
			return skipOutcome(c.NoteID, label, ReasonGatingDeclinedMedia), nil
		}
	}

	if gen == nil {
		return Outcome{}, configError("no %s generator configured", job.Kind)
	}
	var path string
	err := p.trace(ctx, "generate", c.NoteID, func(ctx context.Context) error {
		var err error
		path, err = gen.Generate(ctx, job.render(text), c.NoteID)
		return err
	})
	if err != nil {
		return Outcome{}, &GenerationError{Stage: string(job.Kind) + " generation", NoteID: c.NoteID, Err: err}
	}

	att := &anki.Attachment{
		Slot:     job.Kind.Slot(),
		Filename: filepath.Base(path),
		Path:     path,
		Fields:   []string{job.targetField()},
	}
	if err := p.Store.UpdateFields(ctx, c.NoteID, fieldsOf(cleaned), att); err != nil {
		return Outcome{}, fmt.Errorf("attach %s: %w", att.Filename, err)
	}
	return Outcome{Status: StatusAdded, NoteID: c.NoteID, Text: label, Path: path}, nil
}

// trace times one backend call and logs it at debug level.
func (p *Pipeline) trace(ctx context.Context, op string, noteID int64, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	attrs := []any{"op", op, "note_id", noteID, "duration", time.Since(start).Round(time.Millisecond)}
	if err != nil {
		attrs = append(attrs, "error", redact.Secrets(err.Error()))
	}
	p.logger().DebugContext(ctx, "backend call", attrs...)
	return err
}

func (p *Pipeline) errorOutcome(c Candidate, err error) Outcome {
	label := c.field(p.Job.SourceField)
	if p.Job.StripExistingMedia {
		label = textclean.StripEmbeddedMedia(label)
	}
	return Outcome{Status: StatusError, NoteID: c.NoteID, Text: label, Err: err}
}

func skipOutcome(noteID int64, label, reason string) Outcome {
	return Outcome{Status: StatusSkip, NoteID: noteID, Text: label, Reason: reason}
}

func fieldsOf(c Candidate) map[string]string {
	return map[string]string{FieldFront: c.Front, FieldBack: c.Back}
}

func logOutcome(logger *slog.Logger, o Outcome) {
	attrs := []any{"note_id", o.NoteID, "status", string(o.Status)}
	switch o.Status {
	case StatusSkip:
		logger.Info("candidate skipped", append(attrs, "reason", o.Reason)...)
	case StatusError:
		msg := ""
		if o.Err != nil {
			msg = redact.Secrets(o.Err.Error())
		}
		logger.Warn("candidate failed", append(attrs, "error", msg)...)
	default:
		logger.Info("candidate enriched", append(attrs, "path", o.Path)...)
	}
}

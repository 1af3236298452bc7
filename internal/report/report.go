// Package report renders run progress and summaries for the terminal.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

// noun is how a media kind is named in progress lines.
func noun(kind media.Kind) string {
	if kind == media.KindSpeech {
		return "audio"
	}
	return "image"
}

// Line formats one outcome, e.g. "Skipping image for: 사과 (gating declined)".
func Line(kind media.Kind, o enrich.Outcome) string {
	n := noun(kind)
	switch o.Status {
	case enrich.StatusAdded:
		return fmt.Sprintf("Adding %s for: %s", n, o.Text)
	case enrich.StatusSkip:
		return fmt.Sprintf("Skipping %s for: %s (%s)", n, o.Text, o.Reason)
	default:
		msg := "unknown error"
		if o.Err != nil {
			msg = redact.Secrets(o.Err.Error())
		}
		return fmt.Sprintf("Failed %s for: %s (%s)", n, o.Text, msg)
	}
}

// SummaryLine formats the closing line of a run.
func SummaryLine(kind media.Kind, s enrich.Summary) string {
	return fmt.Sprintf("Completed %s generation: %d added, %d skipped, %d failed.", noun(kind), s.Added, s.Skipped, s.Failed)
}

// Printer writes outcome lines as they arrive.
type Printer struct {
	Out  io.Writer
	Kind media.Kind
}

// Outcome is suitable as the pipeline's onOutcome callback.
func (p *Printer) Outcome(o enrich.Outcome) {
	_, _ = fmt.Fprintln(p.Out, Line(p.Kind, o))
}

// Summary prints the closing line, or a notice when the deck had nothing to do.
func (p *Printer) Summary(deck string, s enrich.Summary) {
	if s.Empty {
		_, _ = fmt.Fprintf(p.Out, "No notes found in deck %q.\n", deck)
		return
	}
	_, _ = fmt.Fprintln(p.Out, SummaryLine(p.Kind, s))
}

// Table renders the summary counts as a table.
func Table(deck string, kind media.Kind, s enrich.Summary) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Deck", "Media", "Added", "Skipped", "Failed", "Total"})
	tw.AppendRow(table.Row{
		deck,
		noun(kind),
		strconv.Itoa(s.Added),
		strconv.Itoa(s.Skipped),
		strconv.Itoa(s.Failed),
		strconv.Itoa(s.Total),
	})
	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}, {Number: 2, Align: text.AlignLeft}}
	for i := 3; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// Decks renders deck names with their note counts.
func Decks(names []string, counts map[string]int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Deck", "Notes"})
	for _, name := range names {
		count := "-"
		if n, ok := counts[name]; ok {
			count = strconv.Itoa(n)
		}
		tw.AppendRow(table.Row{name, count})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft}})
	return tw.Render()
}

// ImageRow is one note with a local illustration.
type ImageRow struct {
	NoteID int64
	Front  string
	Back   string
	Path   string
}

// DeckImages renders the illustrated notes of a deck.
func DeckImages(rows []ImageRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Note", "Front", "Back", "Image"})
	for _, r := range rows {
		tw.AppendRow(table.Row{strconv.FormatInt(r.NoteID, 10), r.Front, r.Back, r.Path})
	}
	return tw.Render()
}

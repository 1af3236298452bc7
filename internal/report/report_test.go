package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
)

func TestLine(t *testing.T) {
	tests := []struct {
		name string
		kind media.Kind
		o    enrich.Outcome
		want string
	}{
		{
			name: "added image",
			kind: media.KindImage,
			o:    enrich.Outcome{Status: enrich.StatusAdded, Text: "apple"},
			want: "Adding image for: apple",
		},
		{
			name: "skipped image",
			kind: media.KindImage,
			o:    enrich.Outcome{Status: enrich.StatusSkip, Text: "the", Reason: enrich.ReasonGatingDeclined},
			want: "Skipping image for: the (gating declined)",
		},
		{
			name: "failed audio",
			kind: media.KindSpeech,
			o:    enrich.Outcome{Status: enrich.StatusError, Text: "사과", Err: errors.New("quota")},
			want: "Failed audio for: 사과 (quota)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Line(tt.kind, tt.o))
		})
	}
}

func TestLine_RedactsSecrets(t *testing.T) {
	o := enrich.Outcome{
		Status: enrich.StatusError,
		Text:   "apple",
		Err:    errors.New("401 Incorrect API key provided: sk-proj-abcdefghijklmnopqrstuvwx"),
	}
	line := Line(media.KindImage, o)
	assert.NotContains(t, line, "abcdefghijklmnopqrstuvwx")
	assert.True(t, strings.HasPrefix(line, "Failed image for: apple ("))
}

func TestSummaryLine(t *testing.T) {
	s := enrich.Summary{Added: 1, Skipped: 2, Failed: 0, Total: 3}
	assert.Equal(t, "Completed image generation: 1 added, 2 skipped, 0 failed.", SummaryLine(media.KindImage, s))
	assert.Equal(t, "Completed audio generation: 1 added, 2 skipped, 0 failed.", SummaryLine(media.KindSpeech, s))
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Out: &buf, Kind: media.KindImage}
	p.Outcome(enrich.Outcome{Status: enrich.StatusAdded, Text: "apple"})
	p.Summary("Korean", enrich.Summary{Added: 1, Total: 1})
	p.Summary("Empty", enrich.Summary{Empty: true})

	want := "Adding image for: apple\n" +
		"Completed image generation: 1 added, 0 skipped, 0 failed.\n" +
		"No notes found in deck \"Empty\".\n"
	assert.Equal(t, want, buf.String())
}

func TestTable(t *testing.T) {
	out := Table("Korean Vocab", media.KindImage, enrich.Summary{Added: 4, Skipped: 2, Failed: 1, Total: 7})
	for _, want := range []string{"Korean Vocab", "image", "Added", "4", "2", "1", "7"} {
		assert.Contains(t, out, want)
	}
}

func TestDecks(t *testing.T) {
	out := Decks([]string{"Default", "Korean"}, map[string]int{"Korean": 12})
	assert.Contains(t, out, "Default")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "-")
}

func TestDeckImages(t *testing.T) {
	out := DeckImages([]ImageRow{
		{NoteID: 1001, Front: "사과", Back: "apple", Path: "/m/images/1001.png"},
	})
	for _, want := range []string{"Note", "Image", "1001", "사과", "apple", "/m/images/1001.png"} {
		assert.Contains(t, out, want)
	}
}

func TestEstimateMediaDuration(t *testing.T) {
	tests := []struct {
		count       int
		perCard     float64
		wantSeconds int
		wantText    string
	}{
		{0, 12, 60, "About 1 minute"},
		{-3, 6, 60, "About 1 minute"},
		{1, 6, 45, "About 45 seconds"},
		{5, 12, 60, "Roughly 1 minute"},
		{10, 12, 120, "Roughly 2 minutes"},
		{9, 6, 54, "About 54 seconds"},
		{1000, 12, 1800, "Roughly 30 minutes"},
	}
	for _, tt := range tests {
		seconds, text := EstimateMediaDuration(tt.count, tt.perCard)
		assert.Equal(t, tt.wantSeconds, seconds, "count=%d", tt.count)
		assert.Equal(t, tt.wantText, text, "count=%d", tt.count)
	}
}

func TestPerCardSeconds(t *testing.T) {
	assert.Equal(t, 12.0, PerCardSeconds(media.KindImage))
	assert.Equal(t, 6.0, PerCardSeconds(media.KindSpeech))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []enrich.Outcome{
		{Status: enrich.StatusAdded, NoteID: 1001, Text: "apple", Path: "/m/images/1001.png"},
		{Status: enrich.StatusSkip, NoteID: 1002, Text: "the, a", Reason: enrich.ReasonGatingDeclined},
		{Status: enrich.StatusError, NoteID: 1003, Text: "x", Err: errors.New("Bearer abc.def failed")},
	})
	assert.NoError(t, err)

	want := "note_id,status,text,reason,error,path\n" +
		"1001,added,apple,,,/m/images/1001.png\n" +
		"1002,skip,\"the, a\",gating declined,,\n" +
		"1003,error,x,,Bearer <redacted> failed,\n"
	assert.Equal(t, want, buf.String())
}

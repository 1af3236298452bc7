package textclean_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsandeep15/AnkiImageToDeck/internal/textclean"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "hello", want: "hello"},
		{name: "tags_become_spaces", in: "<div>Hello</div><br>world", want: "Hello world"},
		{name: "collapses_whitespace", in: "  a \n\t b   c ", want: "a b c"},
		{name: "keeps_entities", in: "<div>Hello&nbsp;&nbsp;world</div><br>!", want: "Hello&nbsp;&nbsp;world !"},
		{name: "image_only", in: `<img src="1.png">`, want: ""},
		{name: "unclosed_tag", in: "a <b c", want: "a b c"},
		{name: "stray_close", in: "a > b", want: "a b"},
		{name: "hangul", in: "<b>안녕</b> 하세요", want: "안녕 하세요"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textclean.Sanitize(tt.in))
		})
	}
}

func TestSanitize_Properties(t *testing.T) {
	inputs := []string{
		"<div>front<img src=\"a.png\"/></div><p><IMG SRC=\"b.png\"></p>",
		"<<>>  <x  ",
		"\t\n",
		"a<b>c</b>d",
		"<script>alert(1)</script> text <",
		"mixed   spacing and　wide",
	}
	for _, in := range inputs {
		got := textclean.Sanitize(in)
		assert.NotContains(t, got, "<", "input %q", in)
		assert.NotContains(t, got, ">", "input %q", in)
		assert.Equal(t, strings.TrimSpace(got), got, "input %q", in)
		assert.NotContains(t, got, "  ", "input %q", in)
		assert.Equal(t, got, textclean.Sanitize(got), "idempotent for %q", in)
	}
}

func TestStripEmbeddedMedia(t *testing.T) {
	html := `<div>front<img src="a.png"/></div><p><IMG SRC="b.png"></p>`
	got := textclean.StripEmbeddedMedia(html)
	assert.Equal(t, "<div>front</div><p></p>", got)
	assert.NotContains(t, strings.ToLower(got), "<img")
}

func TestStripEmbeddedMedia_NoOpWithoutImages(t *testing.T) {
	for _, in := range []string{"", "plain", "<div>x</div>", "[sound:1.mp3]", "<imgx"} {
		assert.Equal(t, in, textclean.StripEmbeddedMedia(in))
		assert.False(t, textclean.HasEmbeddedMedia(in))
	}
}

func TestStripEmbeddedMedia_Idempotent(t *testing.T) {
	for _, in := range []string{
		`<img src="a.png">text<img src='b.png' />`,
		"<im<img>g>",
		"<div><img>",
	} {
		once := textclean.StripEmbeddedMedia(in)
		assert.Equal(t, once, textclean.StripEmbeddedMedia(once), "input %q", in)
		assert.False(t, textclean.HasEmbeddedMedia(once), "input %q", in)
	}
}

func TestSpeechText(t *testing.T) {
	assert.Equal(t, "안녕", textclean.SpeechText("<div>안녕</div>[sound:42.mp3]"))
	assert.Equal(t, "", textclean.SpeechText("<br>"))
}

func TestImageFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "<div><img src='12345.png' /></div>", want: "12345.png"},
		{in: `<div><img src="nested/path/67890.png"></div>`, want: "67890.png"},
		{in: "<div>no image</div>", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, textclean.ImageFilename(tt.in), "input %q", tt.in)
	}
}

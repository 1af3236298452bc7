// Package textclean turns raw note fields into prompt-safe text.
//
// Fields coming out of Anki are HTML fragments that may contain embedded media
// (<img> tags, [sound:...] references). Everything here is a pure function and
// tolerates malformed markup.
package textclean

import (
	"path"
	"regexp"
	"strings"
)

var (
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	imgTagRe   = regexp.MustCompile(`(?i)<img[^>]*>`)
	imgSrcRe   = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"'>]+)["']`)
	soundTagRe = regexp.MustCompile(`\[sound:[^\]]+\]`)
)

// Sanitize removes every markup tag, collapses whitespace runs to a single space and
// trims both ends. Stray angle brackets left by unclosed tags are treated as
// whitespace, so the result never contains '<' or '>'.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	out := htmlTagRe.ReplaceAllString(s, " ")
	out = strings.Map(func(r rune) rune {
		if r == '<' || r == '>' {
			return ' '
		}
		return r
	}, out)
	return strings.Join(strings.Fields(out), " ")
}

// StripEmbeddedMedia removes <img> tags and leaves every other byte untouched.
// Removal repeats until no tag remains, since splicing can join the halves of a
// new tag (e.g. "<im<img>g>").
func StripEmbeddedMedia(s string) string {
	for imgTagRe.MatchString(s) {
		s = imgTagRe.ReplaceAllString(s, "")
	}
	return s
}

// HasEmbeddedMedia reports whether s contains an <img> tag.
func HasEmbeddedMedia(s string) bool {
	return imgTagRe.MatchString(s)
}

// StripSoundTags removes [sound:...] references.
func StripSoundTags(s string) string {
	return soundTagRe.ReplaceAllString(s, "")
}

// SpeechText prepares a field for text-to-speech: audio references are dropped so an
// existing clip is never read aloud, then the text is sanitized.
func SpeechText(s string) string {
	return Sanitize(StripSoundTags(s))
}

// ImageFilename returns the base filename of the first <img src=...> in html, or "".
func ImageFilename(html string) string {
	m := imgSrcRe.FindStringSubmatch(html)
	if len(m) < 2 {
		return ""
	}
	return path.Base(m[1])
}

package redact

import (
	"regexp"
	"strings"
)

var (
	// Matches "Bearer <token>" (JWTs and opaque tokens).
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// OpenAI-style secret keys ("sk-...", "sk-proj-...").
	openAIKeyRe = regexp.MustCompile(`\bsk-[A-Za-z0-9_\-]{8,}`)

	// Common key=value formats that sometimes leak in error strings.
	apiKeyKVRe = regexp.MustCompile(`(?i)\b(api[_-]?key|openai[_-]?api[_-]?key|gemini[_-]?api[_-]?key|key)\b\s*[:=]\s*[^\s"'&]+`)
)

// Secrets removes obvious secret-bearing substrings from error/log strings.
func Secrets(s string) string {
	if s == "" {
		return ""
	}
	out := s
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = openAIKeyRe.ReplaceAllString(out, "<redacted_key>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}

// Truncate redacts s and caps it at max bytes, collapsing newlines so the result fits
// on one log line.
func Truncate(s string, max int) string {
	if s == "" {
		return ""
	}
	cut := s
	if max > 0 && len(cut) > max {
		cut = cut[:max]
	}
	out := Secrets(cut)
	out = strings.ReplaceAll(out, "\n", " ")
	out = strings.ReplaceAll(out, "\r", " ")
	out = strings.TrimSpace(out)
	if out == "" {
		return ""
	}
	if max > 0 && len(s) > max {
		return out + "..."
	}
	return out
}

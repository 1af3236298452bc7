package redact_test

import (
	"strings"
	"testing"

	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

func TestSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		leak     string
		contains string
	}{
		{in: "Authorization: Bearer abc.def.ghi", leak: "abc.def.ghi", contains: "Bearer <redacted>"},
		{in: "invalid key sk-proj-ABCDEFGH12345678", leak: "sk-proj-ABCDEFGH12345678", contains: "<redacted_key>"},
		{in: "request failed: api_key=AIzaSy12345", leak: "AIzaSy12345", contains: "<redacted_kv>"},
		{in: "GEMINI_API_KEY: secretvalue", leak: "secretvalue", contains: "<redacted_kv>"},
	}
	for _, tt := range tests {
		got := redact.Secrets(tt.in)
		if strings.Contains(got, tt.leak) {
			t.Fatalf("Secrets(%q) leaked %q: %q", tt.in, tt.leak, got)
		}
		if !strings.Contains(got, tt.contains) {
			t.Fatalf("Secrets(%q) = %q, want it to contain %q", tt.in, got, tt.contains)
		}
	}
}

func TestSecrets_LeavesPlainText(t *testing.T) {
	t.Parallel()

	in := "note 1001 failed: rate limited"
	if got := redact.Secrets(in); got != in {
		t.Fatalf("Secrets(%q) = %q", in, got)
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	if got := redact.Truncate("line one\nline two", 0); got != "line one line two" {
		t.Fatalf("unexpected collapse: %q", got)
	}
	if got := redact.Truncate("abcdefghij", 4); got != "abcd..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := redact.Truncate("", 10); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

package consumer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/core"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/worker"
)

func TestPublicPackagesCompile(t *testing.T) {
	t.Parallel()

	runner := core.ProcessFunc[string, string](func(_ context.Context, in string) (string, error) {
		if in == "" {
			return "", &core.TransientError{Err: errors.New("empty")}
		}
		return strings.ToUpper(in), nil
	})

	var seen []string
	results, err := worker.ProcessAllWithCallback(context.Background(), []string{"사과", "apple"}, runner.Process,
		func(res worker.Result[string, string]) error {
			seen = append(seen, res.Output)
			return res.Err
		},
		worker.Options{Workers: 2})
	if err != nil {
		t.Fatalf("ProcessAllWithCallback failed: %v", err)
	}
	if len(results) != 2 || len(seen) != 2 {
		t.Fatalf("expected two results, got %v", seen)
	}
	if results[1].Output != "APPLE" {
		t.Fatalf("results keep input order, got %#v", results)
	}

	if got := redact.Secrets("Authorization: Bearer abc"); strings.Contains(got, "abc") {
		t.Fatalf("secret leaked: %q", got)
	}
}

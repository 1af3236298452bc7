// Command ankimedia attaches generated images and audio to the notes of an Anki deck
// through AnkiConnect.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/rsandeep15/AnkiImageToDeck/internal/config"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

// Exit statuses.
const (
	exitOK     = 0
	exitRun    = 1
	exitConfig = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintf(stderr, "config error: load .env: %s\n", redact.Secrets(err.Error()))
		return exitConfig
	}

	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	code := exitCode(err)
	prefix := "run failed"
	if code == exitConfig {
		prefix = "config error"
	}
	if !errors.Is(err, context.Canceled) {
		_, _ = fmt.Fprintf(stderr, "%s: %s\n", prefix, redact.Secrets(err.Error()))
	}
	return code
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue), config.IsConfigError(err):
		return exitConfig
	default:
		return exitRun
	}
}

// usageError marks bad arguments or flags.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func (e usageError) Unwrap() error { return e.err }

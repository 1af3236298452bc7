// Command mock-anki serves an in-memory AnkiConnect stand-in for local smoke runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/rsandeep15/AnkiImageToDeck/internal/logging"
	"github.com/rsandeep15/AnkiImageToDeck/internal/mockanki"
)

func main() {
	addr := defaultString("MOCK_ANKI_ADDR", "127.0.0.1:8765")
	seedPath := defaultString("MOCK_ANKI_SEED", "")
	logLevel := defaultString("LOG_LEVEL", "info")

	fs := flag.NewFlagSet("mock-anki", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address (env: MOCK_ANKI_ADDR)")
	fs.StringVar(&seedPath, "seed", seedPath, "YAML file of decks and notes to preload (env: MOCK_ANKI_SEED)")
	_ = fs.Parse(os.Args[1:])

	logger, err := logging.New(logging.Options{Level: logLevel, Format: defaultString("LOG_FORMAT", "auto")})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	srv := mockanki.New()
	if seedPath != "" {
		seed, err := mockanki.LoadSeedFile(seedPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
			os.Exit(2)
		}
		logger.Info("seeded notes", "path", seedPath, "notes", srv.Apply(seed))
	}

	if err := serve(context.Background(), addr, srv, logger); err != nil {
		logger.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

func serve(ctx context.Context, addr string, srv *mockanki.Server, logger *slog.Logger) error {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Mount("/", srv.Handler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("mock-anki listening", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", "signal", sig.String())
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err.Error())
		}
		return nil
	})

	return g.Wait()
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}

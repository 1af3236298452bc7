package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rsandeep15/AnkiImageToDeck/internal/anki"
	"github.com/rsandeep15/AnkiImageToDeck/internal/config"
	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/logging"
	"github.com/rsandeep15/AnkiImageToDeck/internal/version"
)

// commandContext carries state shared by every subcommand.
type commandContext struct {
	configPath string
	ankiURL    string
	mediaDir   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "ankimedia",
		Short:         "Attach generated images and audio to Anki notes",
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError{fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())}
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&ctx.ankiURL, "anki-url", "", "AnkiConnect endpoint (env: ANKI_CONNECT_URL)")
	flags.StringVar(&ctx.mediaDir, "media-dir", "", "Directory for generated media (env: ANKI_MEDIA_DIR)")

	rootCmd.AddCommand(newImagesCommand(ctx))
	rootCmd.AddCommand(newSpeechCommand(ctx))
	rootCmd.AddCommand(newDecksCommand(ctx))
	rootCmd.AddCommand(newDeckImagesCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))
	return rootCmd
}

func (c *commandContext) load(cmd *cobra.Command) error {
	cfg, err := config.Load(strings.TrimSpace(c.configPath))
	if err != nil {
		return fmt.Errorf("%w: %w", enrich.ErrConfiguration, err)
	}
	if v := strings.TrimSpace(c.ankiURL); v != "" {
		cfg.Anki.URL = v
	}
	if v := strings.TrimSpace(c.mediaDir); v != "" {
		cfg.Anki.MediaDir = v
	}
	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", enrich.ErrConfiguration, err)
	}
	c.cfg = cfg
	c.logger = logger.With("command", cmd.Name())
	return nil
}

func (c *commandContext) ankiClient() (*anki.Client, error) {
	client, err := anki.NewClient(c.cfg.Anki.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", enrich.ErrConfiguration, err)
	}
	return client, nil
}

// deckArg accepts exactly one non-blank deck name.
func deckArg(cmd *cobra.Command, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError{fmt.Errorf("%s requires exactly one deck name", cmd.CommandPath())}
	}
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}

// runFlags are the worker-pool overrides shared by images and speech.
type runFlags struct {
	workers        int
	maxRetries     int
	requestTimeout time.Duration
	rateLimitRPS   float64
}

func (f *runFlags) register(cmd *cobra.Command, workersEnv string) {
	flags := cmd.Flags()
	flags.IntVar(&f.workers, "workers", 0, fmt.Sprintf("Concurrent workers (env: %s)", workersEnv))
	flags.IntVar(&f.maxRetries, "max-retries", 0, "Retries per note for transient failures (env: MAX_RETRIES)")
	flags.DurationVar(&f.requestTimeout, "request-timeout", 0, "Per-note timeout, 0 disables (env: REQUEST_TIMEOUT)")
	flags.Float64Var(&f.rateLimitRPS, "rate-limit-rps", 0, "Global request rate limit, 0 disables (env: RATE_LIMIT_RPS)")
}

// options merges changed flags over the configured values.
func (f *runFlags) options(cmd *cobra.Command, workers int, run config.RunConfig) enrich.Options {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		workers = f.workers
	}
	if flags.Changed("max-retries") {
		run.MaxRetries = f.maxRetries
	}
	if flags.Changed("request-timeout") {
		run.RequestTimeout = f.requestTimeout
	}
	if flags.Changed("rate-limit-rps") {
		run.RateLimitRPS = f.rateLimitRPS
	}
	return enrich.Options{
		Workers:        workers,
		MaxRetries:     run.MaxRetries,
		RequestTimeout: run.RequestTimeout,
		RateLimitRPS:   run.RateLimitRPS,
	}
}

func (f *runFlags) validate(opts enrich.Options) error {
	run := config.RunConfig{
		MaxRetries:     opts.MaxRetries,
		RequestTimeout: opts.RequestTimeout,
		RateLimitRPS:   opts.RateLimitRPS,
	}
	if err := run.Validate(); err != nil {
		return usageError{err}
	}
	return nil
}

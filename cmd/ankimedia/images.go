package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsandeep15/AnkiImageToDeck/internal/config"
	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/internal/report"
)

type imagesFlags struct {
	run runFlags

	backend        string
	imageModel     string
	gatingModel    string
	gatingPromptID string
	prompt         string
	skipGating     bool
	output         outputFlags
}

func newImagesCommand(ctx *commandContext) *cobra.Command {
	var f imagesFlags
	cmd := &cobra.Command{
		Use:   "images <deck>",
		Short: "Illustrate the back of each note and attach the image to the front",
		Args:  deckArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImages(cmd, ctx, &f, strings.TrimSpace(args[0]))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.backend, "backend", "", "Image backend: openai or gemini (env: ANKI_IMAGE_BACKEND)")
	flags.StringVar(&f.imageModel, "image-model", "", "Image model (env: ANKI_IMAGE_MODEL)")
	flags.StringVar(&f.gatingModel, "gating-model", "", "Model used for gating when no stored prompt is set (env: ANKI_GATING_MODEL)")
	flags.StringVar(&f.gatingPromptID, "gating-prompt-id", "", "Stored prompt id for gating; empty string uses --gating-model")
	flags.StringVar(&f.prompt, "prompt", "", "Image prompt template containing {text}")
	flags.BoolVar(&f.skipGating, "skip-gating", false, "Illustrate every note without asking the gating model (env: ANKI_SKIP_GATING)")
	f.output.register(cmd)
	f.run.register(cmd, "ANKI_IMAGE_WORKERS")
	return cmd
}

// imagesConfig applies changed flags to a copy of the loaded configuration.
func (f *imagesFlags) imagesConfig(cmd *cobra.Command, base *config.Config) (config.Config, error) {
	cfg := *base
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Images.Backend = strings.ToLower(strings.TrimSpace(f.backend))
	}
	if flags.Changed("image-model") {
		if cfg.Images.Backend == config.BackendGemini {
			cfg.Gemini.ImageModel = f.imageModel
		} else {
			cfg.Images.Model = f.imageModel
		}
	}
	if flags.Changed("gating-model") {
		if cfg.Images.Backend == config.BackendGemini {
			cfg.Gemini.TextModel = f.gatingModel
		} else {
			cfg.Images.GatingModel = f.gatingModel
		}
	}
	if flags.Changed("gating-prompt-id") {
		cfg.Images.GatingPromptID = strings.TrimSpace(f.gatingPromptID)
	}
	if flags.Changed("prompt") {
		cfg.Images.Prompt = f.prompt
	}
	if flags.Changed("skip-gating") {
		cfg.Images.SkipGating = f.skipGating
	}
	if err := cfg.Images.Validate(); err != nil {
		return cfg, usageError{fmt.Errorf("images: %w", err)}
	}
	return cfg, cfg.RequireImageCredentials()
}

func runImages(cmd *cobra.Command, ctx *commandContext, f *imagesFlags, deck string) error {
	cfg, err := f.imagesConfig(cmd, ctx.cfg)
	if err != nil {
		return err
	}
	opts := f.run.options(cmd, cfg.Images.Workers, cfg.Run)
	if err := f.run.validate(opts); err != nil {
		return err
	}
	store, err := ctx.ankiClient()
	if err != nil {
		return err
	}
	artifacts, err := media.NewStore(afero.NewOsFs(), cfg.Anki.MediaDir)
	if err != nil {
		return err
	}

	gating := !cfg.Images.SkipGating
	p := &enrich.Pipeline{
		Store:     store,
		Artifacts: artifacts,
		Backends:  imageBackends(&cfg, artifacts, gating),
		Job:       enrich.ImageJob(cfg.Images.Prompt, gating),
		Options:   opts,
		Logger:    ctx.logger.With("backend", cfg.Images.Backend),
	}
	return execute(cmd, ctx, p, deck, f.output)
}

// outputFlags control what is printed or saved after the outcome stream.
type outputFlags struct {
	table   bool
	csvPath string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.table, "table", false, "Print a summary table after the run")
	cmd.Flags().StringVar(&f.csvPath, "csv", "", "Write every outcome to this CSV file")
}

// execute logs an estimate, runs the pipeline, and prints the outcome stream.
func execute(cmd *cobra.Command, ctx *commandContext, p *enrich.Pipeline, deck string, output outputFlags) error {
	logEstimate(cmd, ctx, p.Job.Kind, deck)

	out := cmd.OutOrStdout()
	printer := &report.Printer{Out: out, Kind: p.Job.Kind}
	var outcomes []enrich.Outcome
	summary, err := p.Run(cmd.Context(), deck, func(o enrich.Outcome) {
		outcomes = append(outcomes, o)
		printer.Outcome(o)
	})
	if err != nil {
		return err
	}
	printer.Summary(deck, summary)
	if output.table && !summary.Empty {
		_, _ = fmt.Fprintln(out, report.Table(deck, p.Job.Kind, summary))
	}
	if output.csvPath != "" {
		if err := writeOutcomes(output.csvPath, outcomes); err != nil {
			return err
		}
		ctx.logger.Info("wrote outcomes", "path", output.csvPath, "rows", len(outcomes))
	}
	return nil
}

func writeOutcomes(path string, outcomes []enrich.Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create outcome csv: %w", err)
	}
	if err := report.WriteCSV(f, outcomes); err != nil {
		_ = f.Close()
		return fmt.Errorf("write outcome csv: %w", err)
	}
	return f.Close()
}

func logEstimate(cmd *cobra.Command, ctx *commandContext, kind media.Kind, deck string) {
	client, err := ctx.ankiClient()
	if err != nil {
		return
	}
	count, err := client.CountNotes(cmd.Context(), deck)
	if err != nil {
		return
	}
	seconds, text := report.EstimateMediaDuration(count, report.PerCardSeconds(kind))
	ctx.logger.Info("estimated duration", "notes", count, "eta_seconds", seconds, "eta", text)
}

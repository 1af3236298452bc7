package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
)

type speechFlags struct {
	run runFlags

	model        string
	voice        string
	instructions string
	output       outputFlags
}

func newSpeechCommand(ctx *commandContext) *cobra.Command {
	var f speechFlags
	cmd := &cobra.Command{
		Use:   "speech <deck>",
		Short: "Read the front of each note aloud and attach the audio",
		Args:  deckArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeech(cmd, ctx, &f, strings.TrimSpace(args[0]))
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&f.model, "model", "", "Speech model (env: ANKI_SPEECH_MODEL)")
	flags.StringVar(&f.voice, "voice", "", "Voice name (env: ANKI_SPEECH_VOICE)")
	flags.StringVar(&f.instructions, "instructions", "", "Delivery instructions for the speech model")
	f.output.register(cmd)
	f.run.register(cmd, "ANKI_SPEECH_WORKERS")
	return cmd
}

func runSpeech(cmd *cobra.Command, ctx *commandContext, f *speechFlags, deck string) error {
	cfg := *ctx.cfg
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Speech.Model = strings.TrimSpace(f.model)
	}
	if flags.Changed("voice") {
		cfg.Speech.Voice = strings.TrimSpace(f.voice)
	}
	if flags.Changed("instructions") {
		cfg.Speech.Instructions = f.instructions
	}
	if err := cfg.Speech.Validate(); err != nil {
		return usageError{fmt.Errorf("speech: %w", err)}
	}
	if err := cfg.RequireOpenAI(); err != nil {
		return err
	}
	opts := f.run.options(cmd, cfg.Speech.Workers, cfg.Run)
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
	p := &enrich.Pipeline{
		Store:     store,
		Artifacts: artifacts,
		Backends:  speechBackends(&cfg, artifacts),
		Job:       enrich.SpeechJob(),
		Options:   opts,
		Logger:    ctx.logger.With("voice", cfg.Speech.Voice),
	}
	return execute(cmd, ctx, p, deck, f.output)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsandeep15/AnkiImageToDeck/internal/backend/openai"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "models <text|audio|image>",
		Short: "List the OpenAI models usable for one kind of output",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageError{fmt.Errorf("%s requires a model kind", cmd.CommandPath())}
			}
			if _, err := openai.ParseModelKind(args[0]); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := openai.ParseModelKind(args[0])
			if err := ctx.cfg.RequireOpenAI(); err != nil {
				return err
			}
			client, err := openai.NewClient(openAIConfig(ctx.cfg))
			if err != nil {
				return err
			}
			ids, err := client.Models(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range openai.FilterModels(ids, kind) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rsandeep15/AnkiImageToDeck/internal/report"
)

func newDecksCommand(ctx *commandContext) *cobra.Command {
	var counts bool
	cmd := &cobra.Command{
		Use:   "decks",
		Short: "List the decks known to AnkiConnect",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.ankiClient()
			if err != nil {
				return err
			}
			names, err := client.DeckNames(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !counts {
				for _, name := range names {
					_, _ = fmt.Fprintln(out, name)
				}
				return nil
			}
			byDeck := make(map[string]int, len(names))
			for _, name := range names {
				n, err := client.CountNotes(cmd.Context(), name)
				if err != nil {
					return err
				}
				byDeck[name] = n
			}
			_, _ = fmt.Fprintln(out, report.Decks(names, byDeck))
			return nil
		},
	}
	cmd.Flags().BoolVar(&counts, "counts", false, "Show the number of notes in each deck")
	return cmd
}

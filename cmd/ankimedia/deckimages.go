package main

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rsandeep15/AnkiImageToDeck/internal/anki"
	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/internal/media"
	"github.com/rsandeep15/AnkiImageToDeck/internal/report"
	"github.com/rsandeep15/AnkiImageToDeck/internal/textclean"
)

func newDeckImagesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deck-images <deck>",
		Short: "List the notes in a deck whose image exists in the media directory",
		Args:  deckArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			deck := strings.TrimSpace(args[0])
			client, err := ctx.ankiClient()
			if err != nil {
				return err
			}
			artifacts, err := media.NewStore(afero.NewOsFs(), ctx.cfg.Anki.MediaDir)
			if err != nil {
				return err
			}
			notes, err := client.FindCandidates(cmd.Context(), deck)
			if err != nil {
				return err
			}
			rows := illustratedNotes(notes, artifacts)

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				_, _ = fmt.Fprintf(out, "No images found for deck %q.\n", deck)
				return nil
			}
			_, _ = fmt.Fprintln(out, report.DeckImages(rows))
			return nil
		},
	}
}

// illustratedNotes keeps notes whose first <img> (front, then back) resolves to a
// file in the images directory.
func illustratedNotes(notes []anki.Note, artifacts *media.Store) []report.ImageRow {
	var rows []report.ImageRow
	for _, n := range notes {
		front, back := n.Field(enrich.FieldFront), n.Field(enrich.FieldBack)
		name := textclean.ImageFilename(front)
		if name == "" {
			name = textclean.ImageFilename(back)
		}
		if name == "" {
			continue
		}
		path, ok := artifacts.Locate(media.KindImage, name)
		if !ok {
			continue
		}
		rows = append(rows, report.ImageRow{
			NoteID: n.ID,
			Front:  textclean.Sanitize(front),
			Back:   textclean.Sanitize(back),
			Path:   path,
		})
	}
	return rows
}

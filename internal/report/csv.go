package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rsandeep15/AnkiImageToDeck/internal/enrich"
	"github.com/rsandeep15/AnkiImageToDeck/pkg/pipeline/redact"
)

// Header is the stable column order of the outcome CSV.
func Header() []string {
	return []string{"note_id", "status", "text", "reason", "error", "path"}
}

// WriteCSV writes one row per outcome with the Header() ordering.
func WriteCSV(w io.Writer, outcomes []enrich.Outcome) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, o := range outcomes {
		errText := ""
		if o.Err != nil {
			errText = redact.Secrets(o.Err.Error())
		}
		if err := cw.Write([]string{
			strconv.FormatInt(o.NoteID, 10),
			string(o.Status),
			o.Text,
			o.Reason,
			errText,
			o.Path,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

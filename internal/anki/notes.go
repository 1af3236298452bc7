package anki

import (
	"context"
	"fmt"
	"strings"
)

// MediaSlot is the updateNoteFields key an attachment is sent under.
type MediaSlot string

const (
	SlotPicture MediaSlot = "picture"
	SlotAudio   MediaSlot = "audio"
)

// Attachment asks AnkiConnect to copy a local file into its media folder and
// reference it from the listed fields.
type Attachment struct {
	Slot     MediaSlot
	Filename string
	Path     string
	Fields   []string
}

// Note is one note as reported by notesInfo.
type Note struct {
	ID        int64
	ModelName string
	Tags      []string
	Fields    map[string]string
}

// Field returns the named field value, or "" when the note has no such field.
func (n Note) Field(name string) string {
	return n.Fields[name]
}

type noteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Tags      []string             `json:"tags"`
	Fields    map[string]fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// DeckQuery returns the search query selecting every note in deck.
func DeckQuery(deck string) string {
	escaped := strings.ReplaceAll(deck, `\`, `\\`)
	return fmt.Sprintf(`deck:"%s"`, strings.ReplaceAll(escaped, `"`, `\"`))
}

// FindNoteIDs returns the ids of every note in deck, in store order.
func (c *Client) FindNoteIDs(ctx context.Context, deck string) ([]int64, error) {
	var ids []int64
	if err := c.Invoke(ctx, "findNotes", map[string]any{"query": DeckQuery(deck)}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FindCandidates returns every note in deck with its fields, in store order. An empty
// or unknown deck yields an empty slice.
func (c *Client) FindCandidates(ctx context.Context, deck string) ([]Note, error) {
	ids, err := c.FindNoteIDs(ctx, deck)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []Note{}, nil
	}

	var infos []noteInfo
	if err := c.Invoke(ctx, "notesInfo", map[string]any{"notes": ids}, &infos); err != nil {
		return nil, err
	}
	if len(infos) != len(ids) {
		return nil, newStoreError("notesInfo", fmt.Sprintf("expected %d notes, got %d", len(ids), len(infos)), nil)
	}

	notes := make([]Note, 0, len(infos))
	for i, info := range infos {
		id := info.NoteID
		if id == 0 {
			// notesInfo answers {} for ids that vanished between the two calls.
			id = ids[i]
		}
		fields := make(map[string]string, len(info.Fields))
		for name, f := range info.Fields {
			fields[name] = f.Value
		}
		notes = append(notes, Note{
			ID:        id,
			ModelName: info.ModelName,
			Tags:      info.Tags,
			Fields:    fields,
		})
	}
	return notes, nil
}

// CountNotes returns how many notes deck holds.
func (c *Client) CountNotes(ctx context.Context, deck string) (int, error) {
	ids, err := c.FindNoteIDs(ctx, deck)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// UpdateFields overwrites the given fields of a note and, when att is non-nil, attaches
// a media file to it in the same call.
func (c *Client) UpdateFields(ctx context.Context, noteID int64, fields map[string]string, att *Attachment) error {
	note := map[string]any{
		"id":     noteID,
		"fields": fields,
	}
	if att != nil {
		slot := att.Slot
		if slot == "" {
			slot = SlotPicture
		}
		note[string(slot)] = []map[string]any{{
			"filename": att.Filename,
			"fields":   att.Fields,
			"path":     att.Path,
		}}
	}
	return c.Invoke(ctx, "updateNoteFields", map[string]any{"note": note}, nil)
}

// DeckNames lists every deck in the collection.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.Invoke(ctx, "deckNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

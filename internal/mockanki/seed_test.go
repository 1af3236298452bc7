package mockanki

import (
	"os"
	"path/filepath"
	"testing"
)

const seedYAML = `
decks:
  - name: Korean Vocab
    notes:
      - front: 사과
        back: apple
      - front: 그
        back: the
        fields:
          Extra: determiner
  - name: Empty
`

func TestParseSeedAndApply(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	s := New()
	if n := s.Apply(seed); n != 2 {
		t.Fatalf("added=%d want 2", n)
	}
	decks := s.deckNames()
	if len(decks) != 2 || decks[0] != "Korean Vocab" || decks[1] != "Empty" {
		t.Fatalf("decks=%v", decks)
	}
	note, ok := s.Note(1002)
	if !ok {
		t.Fatalf("note 1002 missing")
	}
	if note.Fields["Front"] != "그" || note.Fields["Back"] != "the" || note.Fields["Extra"] != "determiner" {
		t.Fatalf("fields=%v", note.Fields)
	}
}

func TestParseSeed_RejectsUnnamedDeck(t *testing.T) {
	if _, err := ParseSeed([]byte("decks:\n  - notes: []\n")); err == nil {
		t.Fatalf("expected error for deck without name")
	}
}

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if len(seed.Decks) != 2 || len(seed.Decks[0].Notes) != 2 {
		t.Fatalf("seed=%+v", seed)
	}
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if s := New(); s.Apply(nil) != 0 {
		t.Fatalf("nil seed should add nothing")
	}
}

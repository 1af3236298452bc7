package mockanki

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed describes decks and notes to preload, usually read from YAML:
//
//	decks:
//	  - name: Korean Vocab
//	    notes:
//	      - front: 사과
//	        back: apple
type Seed struct {
	Decks []SeedDeck `yaml:"decks"`
}

type SeedDeck struct {
	Name  string     `yaml:"name"`
	Notes []SeedNote `yaml:"notes"`
}

// SeedNote uses the Basic note type. Extra fields are copied as-is.
type SeedNote struct {
	Front  string            `yaml:"front"`
	Back   string            `yaml:"back"`
	Fields map[string]string `yaml:"fields"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, d := range seed.Decks {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("parse seed: deck %d has no name", i)
		}
	}
	return &seed, nil
}

// LoadSeedFile reads and decodes a seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return ParseSeed(data)
}

// Apply adds every deck and note of seed to s and returns the number of notes added.
func (s *Server) Apply(seed *Seed) int {
	if seed == nil {
		return 0
	}
	added := 0
	for _, d := range seed.Decks {
		s.AddDeck(d.Name)
		for _, n := range d.Notes {
			fields := make(map[string]string, len(n.Fields)+2)
			for k, v := range n.Fields {
				fields[k] = v
			}
			fields["Front"] = n.Front
			fields["Back"] = n.Back
			s.AddNote(d.Name, fields)
			added++
		}
	}
	return added
}

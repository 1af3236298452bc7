// Package mockanki is an in-memory stand-in for the AnkiConnect add-on.
//
// It implements the handful of actions the enrichment tools use (deckNames,
// findNotes, notesInfo, updateNoteFields), records every call, and can be told to
// fail or corrupt the response of specific actions.
package mockanki

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Call records one action invocation.
type Call struct {
	Action string
	Params json.RawMessage
}

// MediaRef is one entry of an updateNoteFields picture/audio list.
type MediaRef struct {
	Filename string   `json:"filename"`
	Path     string   `json:"path"`
	Fields   []string `json:"fields"`
}

// Update records one applied updateNoteFields call.
type Update struct {
	NoteID  int64
	Fields  map[string]string
	Picture []MediaRef
	Audio   []MediaRef
}

// Note is the server-side view of a note.
type Note struct {
	ID     int64
	Deck   string
	Fields map[string]string
}

// Server holds decks and notes in memory.
type Server struct {
	mu      sync.Mutex
	calls   []Call
	updates []Update

	decks  []string
	notes  map[int64]*Note
	order  []int64
	nextID int64

	failures    map[string]string
	malformed   map[string]string
	noteFailure map[int64]string
}

// New constructs an empty server. Note ids start at 1000.
func New() *Server {
	return &Server{
		notes:       make(map[int64]*Note),
		nextID:      1000,
		failures:    make(map[string]string),
		malformed:   make(map[string]string),
		noteFailure: make(map[int64]string),
	}
}

// AddDeck registers an empty deck.
func (s *Server) AddDeck(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDeckLocked(name)
}

func (s *Server) addDeckLocked(name string) {
	if !slices.Contains(s.decks, name) {
		s.decks = append(s.decks, name)
	}
}

// AddNote stores a note in deck (creating the deck if needed) and returns its id.
func (s *Server) AddNote(deck string, fields map[string]string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDeckLocked(deck)
	s.nextID++
	id := s.nextID
	copied := make(map[string]string, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	s.notes[id] = &Note{ID: id, Deck: deck, Fields: copied}
	s.order = append(s.order, id)
	return id
}

// Note returns a copy of the stored note.
func (s *Server) Note(id int64) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok {
		return Note{}, false
	}
	out := *n
	out.Fields = make(map[string]string, len(n.Fields))
	for k, v := range n.Fields {
		out.Fields[k] = v
	}
	return out, true
}

// FailAction makes every call to action answer with a non-null error.
func (s *Server) FailAction(action, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[action] = message
}

// FailNoteUpdate makes updateNoteFields fail for a single note.
func (s *Server) FailNoteUpdate(noteID int64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteFailure[noteID] = message
}

// MalformAction makes every call to action answer with body verbatim.
func (s *Server) MalformAction(action, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed[action] = body
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many times action was invoked.
func (s *Server) CallCount(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

// Updates returns a snapshot of applied updateNoteFields calls.
func (s *Server) Updates() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Update, len(s.updates))
	copy(out, s.updates)
	return out
}

// Handler returns an http.Handler that serves the AnkiConnect protocol at "/".
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/", s.handleInvoke)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

type envelope struct {
	Action  string          `json:"action"`
	Params  json.RawMessage `json:"params"`
	Version int             `json:"version"`
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req envelope
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Action: req.Action, Params: req.Params})
	body, malformed := s.malformed[req.Action]
	failure, failed := s.failures[req.Action]
	s.mu.Unlock()

	if malformed {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
		return
	}
	if failed {
		writeResult(w, nil, failure)
		return
	}

	var (
		result any
		err    error
	)
	switch req.Action {
	case "version":
		result = 6
	case "deckNames":
		result = s.deckNames()
	case "findNotes":
		result, err = s.findNotes(req.Params)
	case "notesInfo":
		result, err = s.notesInfo(req.Params)
	case "updateNoteFields":
		err = s.updateNoteFields(req.Params)
	default:
		err = fmt.Errorf("unsupported action")
	}
	if err != nil {
		writeResult(w, nil, err.Error())
		return
	}
	writeResult(w, result, "")
}

func writeResult(w http.ResponseWriter, result any, errMsg string) {
	resp := map[string]any{"result": result, "error": nil}
	if errMsg != "" {
		resp["error"] = errMsg
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) deckNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.decks))
	copy(out, s.decks)
	return out
}

var (
	deckQueryRe = regexp.MustCompile(`^deck:"((?:[^"\\]|\\.)*)"$|^deck:(\S+)$`)
	unescapeRe  = regexp.MustCompile(`\\(.)`)
)

func parseDeckQuery(query string) (string, error) {
	m := deckQueryRe.FindStringSubmatch(query)
	if m == nil {
		return "", fmt.Errorf("unsupported query %q", query)
	}
	if m[1] != "" {
		return unescapeRe.ReplaceAllString(m[1], "$1"), nil
	}
	return m[2], nil
}

func (s *Server) findNotes(raw json.RawMessage) ([]int64, error) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}
	deck, err := parseDeckQuery(p.Query)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := []int64{}
	for _, id := range s.order {
		if s.notes[id].Deck == deck {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fieldValue struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

func (s *Server) notesInfo(raw json.RawMessage) ([]map[string]any, error) {
	var p struct {
		Notes []int64 `json:"notes"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid params: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(p.Notes))
	for _, id := range p.Notes {
		n, ok := s.notes[id]
		if !ok {
			out = append(out, map[string]any{})
			continue
		}
		names := make([]string, 0, len(n.Fields))
		for k := range n.Fields {
			names = append(names, k)
		}
		slices.Sort(names)
		fields := make(map[string]fieldValue, len(names))
		for i, k := range names {
			fields[k] = fieldValue{Value: n.Fields[k], Order: i}
		}
		out = append(out, map[string]any{
			"noteId":    n.ID,
			"modelName": "Basic",
			"tags":      []string{},
			"fields":    fields,
		})
	}
	return out, nil
}

func (s *Server) updateNoteFields(raw json.RawMessage) error {
	var p struct {
		Note struct {
			ID      int64             `json:"id"`
			Fields  map[string]string `json:"fields"`
			Picture []MediaRef        `json:"picture"`
			Audio   []MediaRef        `json:"audio"`
		} `json:"note"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("invalid params: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.noteFailure[p.Note.ID]; ok {
		return fmt.Errorf("%s", msg)
	}
	n, ok := s.notes[p.Note.ID]
	if !ok {
		return fmt.Errorf("note was not found: %d", p.Note.ID)
	}
	for k, v := range p.Note.Fields {
		if _, exists := n.Fields[k]; !exists {
			return fmt.Errorf("note has no field %q", k)
		}
		n.Fields[k] = v
	}
	for _, ref := range p.Note.Picture {
		n.attach(ref, fmt.Sprintf(`<img src="%s">`, ref.Filename))
	}
	for _, ref := range p.Note.Audio {
		n.attach(ref, fmt.Sprintf("[sound:%s]", ref.Filename))
	}

	fields := make(map[string]string, len(p.Note.Fields))
	for k, v := range p.Note.Fields {
		fields[k] = v
	}
	s.updates = append(s.updates, Update{
		NoteID:  p.Note.ID,
		Fields:  fields,
		Picture: p.Note.Picture,
		Audio:   p.Note.Audio,
	})
	return nil
}

// attach appends media markup to every listed field the note has, the way
// AnkiConnect references stored media.
func (n *Note) attach(ref MediaRef, markup string) {
	for _, f := range ref.Fields {
		if _, ok := n.Fields[f]; ok {
			n.Fields[f] += markup
		}
	}
}

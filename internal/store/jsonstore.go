package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aria-companion/project-aria/internal/types"
)

// document is the on-disk shape of the whole store: one JSON file holding
// the user-level collections and the character list.
type document struct {
	UserData   userData                   `json:"user_data"`
	Characters map[string]types.Character `json:"character_list"`
}

type userData struct {
	Personas    map[string]types.Persona  `json:"personas,omitempty"`
	Presets     map[string]types.Preset   `json:"presets,omitempty"`
	Lorebooks   map[string]types.Lorebook `json:"lorebooks,omitempty"`
	AuthorNotes string                    `json:"author_notes,omitempty"`
	Settings    settings                  `json:"settings"`
}

type settings struct {
	SmartMemory bool `json:"smart_memory"`
}

// JSONStore implements DocumentStore over a single JSON file. The whole
// document lives in memory under a RWMutex, so every read is a consistent
// snapshot; writes rewrite the file atomically via a temp file rename.
type JSONStore struct {
	mu   sync.RWMutex
	path string
	doc  document
}

// OpenJSON loads (or initializes) the store at path. Loaded documents are
// schema-validated so a hand-edited card fails here instead of producing a
// malformed prompt later.
func OpenJSON(path string) (*JSONStore, error) {
	s := &JSONStore{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse store file: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return nil, fmt.Errorf("invalid store document: %w", err)
	}
	if err := json.Unmarshal(data, &s.doc); err != nil {
		return nil, fmt.Errorf("failed to decode store file: %w", err)
	}
	return s, nil
}

// Character returns a deep-copied snapshot of the named character.
func (s *JSONStore) Character(name string) (types.Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	char, ok := s.doc.Characters[name]
	if !ok {
		return types.Character{}, fmt.Errorf("character %q not found", name)
	}
	copied := char
	copied.Name = name
	copied.Chats = make(map[string]types.Chat, len(char.Chats))
	for id, chat := range char.Chats {
		copied.Chats[id] = types.Chat{Content: append([]types.ChatTurn(nil), chat.Content...)}
	}
	return copied, nil
}

func (s *JSONStore) Personas() (map[string]types.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]types.Persona, len(s.doc.UserData.Personas))
	for name, p := range s.doc.UserData.Personas {
		out[name] = p
	}
	return out, nil
}

func (s *JSONStore) Presets() (map[string]types.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]types.Preset, len(s.doc.UserData.Presets))
	for name, p := range s.doc.UserData.Presets {
		p.Order = append([]string(nil), p.Order...)
		out[name] = p
	}
	return out, nil
}

func (s *JSONStore) Lorebooks() (map[string]types.Lorebook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]types.Lorebook, len(s.doc.UserData.Lorebooks))
	for name, lb := range s.doc.UserData.Lorebooks {
		entries := make([]types.LorebookEntry, len(lb.Entries))
		for i, e := range lb.Entries {
			e.Key = append([]string(nil), e.Key...)
			entries[i] = e
		}
		lb.Entries = entries
		out[name] = lb
	}
	return out, nil
}

func (s *JSONStore) AuthorNotes() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.UserData.AuthorNotes, nil
}

func (s *JSONStore) SmartMemory() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.UserData.Settings.SmartMemory, nil
}

// AppendTurns appends turns to the character's chat, creating the chat on
// first use, and persists the updated document.
func (s *JSONStore) AppendTurns(_ context.Context, character, chatID string, turns []types.ChatTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Characters == nil {
		s.doc.Characters = make(map[string]types.Character)
	}
	char, ok := s.doc.Characters[character]
	if !ok {
		return fmt.Errorf("character %q not found", character)
	}
	if char.Chats == nil {
		char.Chats = make(map[string]types.Chat)
	}
	chat := char.Chats[chatID]
	chat.Content = append(chat.Content, turns...)
	char.Chats[chatID] = chat
	s.doc.Characters[character] = char

	return s.persistLocked()
}

// SetCharacter inserts or replaces a character card and persists.
func (s *JSONStore) SetCharacter(name string, char types.Character) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Characters == nil {
		s.doc.Characters = make(map[string]types.Character)
	}
	s.doc.Characters[name] = char
	return s.persistLocked()
}

func (s *JSONStore) persistLocked() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store document: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

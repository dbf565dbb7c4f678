// Package store provides the JSON-backed document store holding user
// settings, personas, presets, lorebooks, and per-character chat state.
package store

import (
	"context"

	"github.com/aria-companion/project-aria/internal/types"
)

// DocumentStore is the read/write contract the conversation core depends
// on. Reads return snapshots: mutating a returned value never affects the
// stored document. Writes happen only after a reply has fully streamed.
type DocumentStore interface {
	Character(name string) (types.Character, error)
	Personas() (map[string]types.Persona, error)
	Presets() (map[string]types.Preset, error)
	Lorebooks() (map[string]types.Lorebook, error)
	AuthorNotes() (string, error)
	SmartMemory() (bool, error)
	AppendTurns(ctx context.Context, character, chatID string, turns []types.ChatTurn) error
}

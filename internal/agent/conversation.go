// Package agent orchestrates one conversation turn: resolve the character's
// configuration from the document store, assemble the prompt, stream the
// reply, and persist the exchange once it completes.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aria-companion/project-aria/internal/memory"
	"github.com/aria-companion/project-aria/internal/models"
	"github.com/aria-companion/project-aria/internal/prompt"
	"github.com/aria-companion/project-aria/internal/store"
	"github.com/aria-companion/project-aria/internal/types"
)

// Conversation drives turns for one configured character setup.
type Conversation struct {
	store     store.DocumentStore
	assembler *prompt.Assembler
	model     models.ChatModel
	archive   *memory.Archive // nil when archiving is disabled
	params    models.GenParams
}

// NewConversation wires the conversation service. archive may be nil.
func NewConversation(docs store.DocumentStore, assembler *prompt.Assembler, model models.ChatModel, archive *memory.Archive, params models.GenParams) *Conversation {
	return &Conversation{
		store:     docs,
		assembler: assembler,
		model:     model,
		archive:   archive,
		params:    params,
	}
}

// Send runs one turn. onFragment, when non-nil, receives each streamed
// fragment as it arrives. The user and assistant turns are persisted only
// after the stream finishes; a cancelled or failed stream writes nothing.
func (c *Conversation) Send(ctx context.Context, characterName, userMessage string, onFragment func(string)) (string, error) {
	character, err := c.store.Character(characterName)
	if err != nil {
		return "", fmt.Errorf("failed to load character: %w", err)
	}

	input := c.resolveInput(character, userMessage)
	assembled := c.assembler.Assemble(ctx, input)

	var reply strings.Builder
	for fragment, err := range c.model.StreamCompletion(ctx, assembled, c.params) {
		if err != nil {
			return "", err
		}
		reply.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}

	exchange := []types.ChatTurn{
		{Role: types.RoleUser, Content: userMessage},
		{Role: types.RoleAssistant, Content: reply.String()},
	}
	if err := c.store.AppendTurns(ctx, characterName, character.CurrentChat, exchange); err != nil {
		return "", fmt.Errorf("failed to persist turns: %w", err)
	}
	if c.archive != nil {
		if err := c.archive.Record(ctx, characterName, character.CurrentChat, exchange); err != nil {
			slog.Warn("failed to archive exchange", "error", err, "character", characterName)
		}
	}
	return reply.String(), nil
}

// resolveInput turns the character's selections by name into assembler
// inputs. Anything missing or set to "None" resolves to not-selected;
// selection problems never fail a turn.
func (c *Conversation) resolveInput(character types.Character, userMessage string) prompt.Input {
	input := prompt.Input{
		CharacterName: character.Name,
		CharacterInfo: character.Information,
		Preset:        prompt.DefaultPreset(),
		History:       character.History(),
		UserMessage:   userMessage,
	}

	if name := character.SelectedPersona; name != "" && name != types.NoneSelected {
		if personas, err := c.store.Personas(); err == nil {
			if persona, ok := personas[name]; ok {
				input.Persona = &persona
			}
		}
	}
	if name := character.SelectedPreset; name != "" && name != prompt.DefaultPresetName {
		if presets, err := c.store.Presets(); err == nil {
			if preset, ok := presets[name]; ok {
				input.Preset = preset
			}
		}
	}
	if name := character.SelectedLorebook; name != "" && name != types.NoneSelected {
		if lorebooks, err := c.store.Lorebooks(); err == nil {
			if lorebook, ok := lorebooks[name]; ok {
				input.Lorebook = &lorebook
			}
		}
	}
	if notes, err := c.store.AuthorNotes(); err == nil {
		input.AuthorNotes = notes
	}
	if smart, err := c.store.SmartMemory(); err == nil {
		input.SmartMemory = smart
	}
	return input
}

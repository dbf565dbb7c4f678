// Package types defines the shared data contracts of the conversation core.
package types

// Chat roles as they appear on the wire and in stored chat documents.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// NoneSelected is the sentinel a character card uses for an unselected
// persona, preset, or lorebook.
const NoneSelected = "None"

// ChatTurn is one role-tagged message. Turns are append-only; the sequence
// order is the conversational order.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Persona is the user's in-chat identity, substituted into prompt templates.
type Persona struct {
	UserName        string `json:"user_name"`
	UserDescription string `json:"user_description,omitempty"`
}

// Preset is a named system-prompt template plus the ordering of the
// system sections built from it.
type Preset struct {
	Prompt string   `json:"prompt"`
	Order  []string `json:"order"`
}

// LorebookEntry is one keyword-triggered knowledge snippet.
type LorebookEntry struct {
	Key     []string `json:"key"`
	Content string   `json:"content"`
}

// Lorebook is a keyword-triggered knowledge table. NDepth bounds how many
// of the most recent turns are scanned for key matches; zero disables
// activation entirely.
type Lorebook struct {
	NDepth  int             `json:"n_depth,omitempty"`
	Entries []LorebookEntry `json:"entries,omitempty"`
}

// Chat is one stored conversation of a character.
type Chat struct {
	Content []ChatTurn `json:"chat_content,omitempty"`
}

// Character is the stored character card: selections by name into the
// user-level collections, the character's own description text, and its
// chats keyed by id.
type Character struct {
	Name             string          `json:"-"`
	Information      string          `json:"character_information,omitempty"`
	SelectedPersona  string          `json:"selected_persona,omitempty"`
	SelectedPreset   string          `json:"selected_system_prompt_preset,omitempty"`
	SelectedLorebook string          `json:"selected_lorebook,omitempty"`
	CurrentChat      string          `json:"current_chat,omitempty"`
	Chats            map[string]Chat `json:"chats,omitempty"`
}

// History returns the turn list of the character's current chat.
func (c Character) History() []ChatTurn {
	return c.Chats[c.CurrentChat].Content
}

// Segment is a contiguous same-role run of turns, the unit of relevance
// ranking. Derived per assembly call, never persisted.
type Segment struct {
	Turns []ChatTurn
	Text  string
}

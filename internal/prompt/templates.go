// Package prompt assembles the ordered message list sent to a language
// model: system sections from the active preset, lorebook activations,
// persona and author-note injection, and smart-memory retrieval.
package prompt

import (
	"strings"

	"github.com/aria-companion/project-aria/internal/types"
)

// Recognized section names a preset's order may reference. Anything else
// is skipped, so user-authored presets stay forward compatible.
const (
	SectionSystemPrompt  = "System prompt"
	SectionCharacterInfo = "Character's information"
	SectionLorebook      = "Lorebook"
	SectionPersonaInfo   = "Persona information"
	SectionAuthorNotes   = "Author's notes"
)

// DefaultPresetName selects the built-in preset. It is a constant of the
// application and never stored alongside user presets.
const DefaultPresetName = "By default"

const defaultPromptText = `You are {{char}}, chatting with {{user}} in a never-ending roleplay.
Always stay in character as {{char}} and never state that you are an AI.
Keep continuity with everything said before, speak naturally, and react to {{user}}'s messages with genuine emotion.
Avoid narrating for {{user}} or putting words in their mouth.
{{user_description}}`

// DefaultPreset returns the built-in template with its fixed section order.
func DefaultPreset() types.Preset {
	return types.Preset{
		Prompt: defaultPromptText,
		Order: []string{
			SectionSystemPrompt,
			SectionCharacterInfo,
			SectionLorebook,
			SectionPersonaInfo,
			SectionAuthorNotes,
		},
	}
}

// substitute fills the template placeholders. Only the system-prompt
// template is substituted; other sections pass through untouched.
func substitute(text, userName, charName, userDescription string) string {
	text = strings.ReplaceAll(text, "{{user}}", userName)
	text = strings.ReplaceAll(text, "{{char}}", charName)
	text = strings.ReplaceAll(text, "{{user_description}}", userDescription)
	return text
}

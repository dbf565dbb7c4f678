package store

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/aria-companion/project-aria/internal/types"
)

// Schemas inferred from the document types, resolved once at init.
var (
	characterSchema = mustSchema[types.Character]()
	personaSchema   = mustSchema[types.Persona]()
	presetSchema    = mustSchema[types.Preset]()
	lorebookSchema  = mustSchema[types.Lorebook]()
)

func mustSchema[T any]() *jsonschema.Resolved {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(err)
	}
	return resolved
}

// validateDocument checks a raw store document against the inferred
// schemas before it is decoded into typed structs.
func validateDocument(raw map[string]any) error {
	if characters, ok := raw["character_list"].(map[string]any); ok {
		for name, card := range characters {
			if err := characterSchema.Validate(card); err != nil {
				return fmt.Errorf("character %q: %w", name, err)
			}
		}
	}

	user, ok := raw["user_data"].(map[string]any)
	if !ok {
		return nil
	}
	if personas, ok := user["personas"].(map[string]any); ok {
		for name, p := range personas {
			if err := personaSchema.Validate(p); err != nil {
				return fmt.Errorf("persona %q: %w", name, err)
			}
		}
	}
	if presets, ok := user["presets"].(map[string]any); ok {
		for name, p := range presets {
			if err := presetSchema.Validate(p); err != nil {
				return fmt.Errorf("preset %q: %w", name, err)
			}
		}
	}
	if lorebooks, ok := user["lorebooks"].(map[string]any); ok {
		for name, lb := range lorebooks {
			if err := lorebookSchema.Validate(lb); err != nil {
				return fmt.Errorf("lorebook %q: %w", name, err)
			}
		}
	}
	return nil
}

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aria-companion/project-aria/internal/types"
)

const fixtureDoc = `{
  "user_data": {
    "personas": {
      "Wanderer": {"user_name": "Kai", "user_description": "a traveler"}
    },
    "presets": {
      "Minimal": {"prompt": "hi {{char}}", "order": ["System prompt"]}
    },
    "lorebooks": {
      "World": {"n_depth": 2, "entries": [{"key": ["dragon"], "content": "A"}]}
    },
    "author_notes": "keep it light",
    "settings": {"smart_memory": true}
  },
  "character_list": {
    "Aria": {
      "character_information": "a librarian",
      "selected_persona": "Wanderer",
      "selected_system_prompt_preset": "By default",
      "selected_lorebook": "World",
      "current_chat": "chat-1",
      "chats": {
        "chat-1": {
          "chat_content": [
            {"role": "user", "content": "hi"},
            {"role": "assistant", "content": "hello"}
          ]
        }
      }
    }
  }
}`

func openFixture(t *testing.T) *JSONStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companion.json")
	if err := os.WriteFile(path, []byte(fixtureDoc), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON returned error: %v", err)
	}
	return s
}

func TestOpenJSONMissingFile(t *testing.T) {
	s, err := OpenJSON(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("a missing file should initialize an empty store, got %v", err)
	}
	if _, err := s.Character("Aria"); err == nil {
		t.Fatal("expected lookup in empty store to fail")
	}
}

func TestJSONStoreReads(t *testing.T) {
	s := openFixture(t)

	char, err := s.Character("Aria")
	if err != nil {
		t.Fatalf("Character returned error: %v", err)
	}
	if char.Name != "Aria" || char.SelectedPersona != "Wanderer" || char.CurrentChat != "chat-1" {
		t.Fatalf("unexpected character: %+v", char)
	}
	if history := char.History(); len(history) != 2 || history[0].Content != "hi" {
		t.Fatalf("unexpected history: %+v", history)
	}

	personas, err := s.Personas()
	if err != nil {
		t.Fatalf("Personas returned error: %v", err)
	}
	if personas["Wanderer"].UserName != "Kai" {
		t.Fatalf("unexpected personas: %+v", personas)
	}

	lorebooks, err := s.Lorebooks()
	if err != nil {
		t.Fatalf("Lorebooks returned error: %v", err)
	}
	if lorebooks["World"].NDepth != 2 || len(lorebooks["World"].Entries) != 1 {
		t.Fatalf("unexpected lorebooks: %+v", lorebooks)
	}

	notes, err := s.AuthorNotes()
	if err != nil || notes != "keep it light" {
		t.Fatalf("unexpected author notes: %q (%v)", notes, err)
	}
	smart, err := s.SmartMemory()
	if err != nil || !smart {
		t.Fatalf("expected smart memory enabled, got %v (%v)", smart, err)
	}
}

func TestJSONStoreSnapshotIsolation(t *testing.T) {
	s := openFixture(t)

	char, err := s.Character("Aria")
	if err != nil {
		t.Fatalf("Character returned error: %v", err)
	}
	char.Chats["chat-1"].Content[0].Content = "mutated"
	char.Chats["other"] = types.Chat{}

	fresh, err := s.Character("Aria")
	if err != nil {
		t.Fatalf("Character returned error: %v", err)
	}
	if fresh.History()[0].Content != "hi" {
		t.Fatal("mutating a snapshot leaked into the store")
	}
	if _, ok := fresh.Chats["other"]; ok {
		t.Fatal("snapshot chats map is shared with the store")
	}
}

func TestJSONStoreAppendTurnsPersists(t *testing.T) {
	s := openFixture(t)
	ctx := context.Background()

	exchange := []types.ChatTurn{
		{Role: types.RoleUser, Content: "how are you"},
		{Role: types.RoleAssistant, Content: "well, thanks"},
	}
	if err := s.AppendTurns(ctx, "Aria", "chat-1", exchange); err != nil {
		t.Fatalf("AppendTurns returned error: %v", err)
	}

	reopened, err := OpenJSON(s.path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	char, err := reopened.Character("Aria")
	if err != nil {
		t.Fatalf("Character returned error: %v", err)
	}
	history := char.History()
	if len(history) != 4 {
		t.Fatalf("expected 4 turns after append, got %d", len(history))
	}
	if history[3].Content != "well, thanks" {
		t.Fatalf("unexpected final turn: %+v", history[3])
	}
}

func TestJSONStoreAppendTurnsUnknownCharacter(t *testing.T) {
	s := openFixture(t)
	err := s.AppendTurns(context.Background(), "Nobody", "chat-1", []types.ChatTurn{{Role: types.RoleUser, Content: "hi"}})
	if err == nil {
		t.Fatal("expected append to an unknown character to fail")
	}
}

func TestJSONStoreSetCharacter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companion.json")
	s, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("OpenJSON returned error: %v", err)
	}

	char := types.Character{
		Information: "newly imported card",
		CurrentChat: "chat-1",
	}
	if err := s.SetCharacter("Mirei", char); err != nil {
		t.Fatalf("SetCharacter returned error: %v", err)
	}

	reopened, err := OpenJSON(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	got, err := reopened.Character("Mirei")
	if err != nil {
		t.Fatalf("Character returned error: %v", err)
	}
	if got.Information != "newly imported card" {
		t.Fatalf("unexpected character after reopen: %+v", got)
	}
}

func TestOpenJSONRejectsMalformedDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	doc := `{
  "user_data": {
    "lorebooks": {
      "World": {"n_depth": "two", "entries": []}
    },
    "settings": {"smart_memory": false}
  },
  "character_list": {}
}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := OpenJSON(path); err == nil {
		t.Fatal("expected schema validation to reject a string n_depth")
	}
}

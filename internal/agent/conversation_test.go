package agent

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"testing"

	"github.com/aria-companion/project-aria/internal/models"
	"github.com/aria-companion/project-aria/internal/prompt"
	"github.com/aria-companion/project-aria/internal/types"
)

type mockStore struct {
	characters map[string]types.Character
	personas   map[string]types.Persona
	presets    map[string]types.Preset
	lorebooks  map[string]types.Lorebook
	notes      string
	smart      bool
	appended   []appendCall
}

type appendCall struct {
	character string
	chatID    string
	turns     []types.ChatTurn
}

func (m *mockStore) Character(name string) (types.Character, error) {
	char, ok := m.characters[name]
	if !ok {
		return types.Character{}, fmt.Errorf("character %q not found", name)
	}
	char.Name = name
	return char, nil
}

func (m *mockStore) Personas() (map[string]types.Persona, error)   { return m.personas, nil }
func (m *mockStore) Presets() (map[string]types.Preset, error)     { return m.presets, nil }
func (m *mockStore) Lorebooks() (map[string]types.Lorebook, error) { return m.lorebooks, nil }
func (m *mockStore) AuthorNotes() (string, error)                  { return m.notes, nil }
func (m *mockStore) SmartMemory() (bool, error)                    { return m.smart, nil }

func (m *mockStore) AppendTurns(_ context.Context, character, chatID string, turns []types.ChatTurn) error {
	m.appended = append(m.appended, appendCall{character: character, chatID: chatID, turns: turns})
	return nil
}

type scriptedModel struct {
	fragments []string
	err       error
	received  [][]types.ChatTurn
}

func (s *scriptedModel) Name() string { return "scripted" }

func (s *scriptedModel) StreamCompletion(_ context.Context, turns []types.ChatTurn, _ models.GenParams) iter.Seq2[string, error] {
	s.received = append(s.received, turns)
	return func(yield func(string, error) bool) {
		for _, fragment := range s.fragments {
			if !yield(fragment, nil) {
				return
			}
		}
		if s.err != nil {
			yield("", s.err)
		}
	}
}

type noopRanker struct{}

func (noopRanker) Rank(context.Context, []types.Segment, string, int) ([]string, error) {
	return nil, nil
}

func newTestStore() *mockStore {
	return &mockStore{
		characters: map[string]types.Character{
			"Aria": {
				Information:     "Aria is a quiet librarian.",
				SelectedPersona: "Wanderer",
				SelectedPreset:  prompt.DefaultPresetName,
				CurrentChat:     "chat-1",
				Chats: map[string]types.Chat{
					"chat-1": {Content: []types.ChatTurn{
						{Role: types.RoleUser, Content: "hi"},
						{Role: types.RoleAssistant, Content: "hello"},
					}},
				},
			},
		},
		personas: map[string]types.Persona{
			"Wanderer": {UserName: "Kai", UserDescription: "a traveler"},
		},
		notes: "",
	}
}

func TestSendStreamsAndPersists(t *testing.T) {
	docs := newTestStore()
	model := &scriptedModel{fragments: []string{"Good ", "to ", "see you."}}
	conversation := NewConversation(docs, prompt.NewAssembler(noopRanker{}), model, nil, models.GenParams{})

	var streamed strings.Builder
	reply, err := conversation.Send(context.Background(), "Aria", "how are you?", func(fragment string) {
		streamed.WriteString(fragment)
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if reply != "Good to see you." {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if streamed.String() != reply {
		t.Fatalf("callback saw %q, reply was %q", streamed.String(), reply)
	}

	if len(model.received) != 1 {
		t.Fatalf("expected one completion call, got %d", len(model.received))
	}
	assembled := model.received[0]
	last := assembled[len(assembled)-1]
	if last.Role != types.RoleUser || last.Content != "how are you?" {
		t.Fatalf("assembled prompt must end with the new user message, got %+v", last)
	}
	if !strings.Contains(assembled[0].Content, "Aria") || !strings.Contains(assembled[0].Content, "Kai") {
		t.Fatalf("persona/character substitution missing: %q", assembled[0].Content)
	}

	if len(docs.appended) != 1 {
		t.Fatalf("expected one persist call, got %d", len(docs.appended))
	}
	call := docs.appended[0]
	if call.character != "Aria" || call.chatID != "chat-1" {
		t.Fatalf("persisted to wrong location: %+v", call)
	}
	if len(call.turns) != 2 || call.turns[0].Role != types.RoleUser || call.turns[1].Content != reply {
		t.Fatalf("unexpected persisted turns: %+v", call.turns)
	}
}

func TestSendStreamErrorWritesNothing(t *testing.T) {
	docs := newTestStore()
	model := &scriptedModel{
		fragments: []string{"partial "},
		err:       fmt.Errorf("connection reset"),
	}
	conversation := NewConversation(docs, prompt.NewAssembler(noopRanker{}), model, nil, models.GenParams{})

	if _, err := conversation.Send(context.Background(), "Aria", "hello?", nil); err == nil {
		t.Fatal("expected the stream error to propagate")
	}
	if len(docs.appended) != 0 {
		t.Fatalf("a failed stream must not persist turns, got %d appends", len(docs.appended))
	}
}

func TestSendUnknownCharacter(t *testing.T) {
	conversation := NewConversation(newTestStore(), prompt.NewAssembler(noopRanker{}), &scriptedModel{}, nil, models.GenParams{})
	if _, err := conversation.Send(context.Background(), "Nobody", "hi", nil); err == nil {
		t.Fatal("expected an error for an unknown character")
	}
}

func TestSendResolvesMissingSelectionsAsNone(t *testing.T) {
	docs := newTestStore()
	char := docs.characters["Aria"]
	char.SelectedPersona = "Ghost" // not in the store
	char.SelectedLorebook = types.NoneSelected
	docs.characters["Aria"] = char

	model := &scriptedModel{fragments: []string{"ok"}}
	conversation := NewConversation(docs, prompt.NewAssembler(noopRanker{}), model, nil, models.GenParams{})

	if _, err := conversation.Send(context.Background(), "Aria", "still works?", nil); err != nil {
		t.Fatalf("missing selections must not fail a turn: %v", err)
	}
	assembled := model.received[0]
	if !strings.Contains(assembled[0].Content, "User") {
		t.Fatalf("expected fallback user name in system prompt: %q", assembled[0].Content)
	}
	for _, msg := range assembled {
		if strings.Contains(msg.Content, "User Description:") {
			t.Fatalf("persona section must not appear without a resolvable persona: %q", msg.Content)
		}
	}
}

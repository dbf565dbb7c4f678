package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aria-companion/project-aria/internal/memory"
	"github.com/aria-companion/project-aria/internal/types"
)

// Defaults for the assembler's memory knobs.
const (
	DefaultTopK        = 4
	DefaultShortTerm   = 3
	DefaultSmartCutoff = 10
)

// MemoryRanker ranks chat segments against a query. *memory.Ranker is the
// production implementation.
type MemoryRanker interface {
	Rank(ctx context.Context, segments []types.Segment, query string, topK int) ([]string, error)
}

// Input is everything one assembly call needs, already resolved by name:
// a missing persona/preset/lorebook arrives here as nil or the default, so
// the assembler itself never touches storage.
type Input struct {
	CharacterName string
	CharacterInfo string
	Persona       *types.Persona  // nil when "None" or unresolvable
	Preset        types.Preset    // default preset already applied
	Lorebook      *types.Lorebook // nil when "None" or unresolvable
	AuthorNotes   string
	History       []types.ChatTurn
	UserMessage   string
	SmartMemory   bool
}

// Assembler builds the final message list for a completion request.
type Assembler struct {
	ranker      MemoryRanker
	topK        int
	shortTerm   int
	smartCutoff int
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithTopK sets how many memory fragments smart memory injects.
func WithTopK(k int) Option {
	return func(a *Assembler) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithShortTermDepth sets how many trailing raw turns follow the
// short-term marker.
func WithShortTermDepth(depth int) Option {
	return func(a *Assembler) {
		if depth > 0 {
			a.shortTerm = depth
		}
	}
}

// NewAssembler creates an Assembler using the given ranker for smart
// memory.
func NewAssembler(ranker MemoryRanker, opts ...Option) *Assembler {
	a := &Assembler{
		ranker:      ranker,
		topK:        DefaultTopK,
		shortTerm:   DefaultShortTerm,
		smartCutoff: DefaultSmartCutoff,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble produces the ordered message list: preset sections first, then
// history (verbatim or via smart memory), then the new user message. It
// never fails; every internal error degrades to verbatim history so the
// user never sees a broken prompt.
func (a *Assembler) Assemble(ctx context.Context, in Input) []types.ChatTurn {
	userName := "User"
	userDescription := ""
	if in.Persona != nil {
		if in.Persona.UserName != "" {
			userName = in.Persona.UserName
		}
		userDescription = in.Persona.UserDescription
	}

	var messages []types.ChatTurn
	for _, section := range in.Preset.Order {
		switch section {
		case SectionSystemPrompt:
			// Appended even when the substituted text is empty, unlike
			// every other section.
			text := substitute(in.Preset.Prompt, userName, in.CharacterName, userDescription)
			messages = append(messages, systemTurn(text))
		case SectionCharacterInfo:
			if strings.TrimSpace(in.CharacterInfo) != "" {
				messages = append(messages, systemTurn(in.CharacterInfo))
			}
		case SectionLorebook:
			if in.Lorebook == nil {
				continue
			}
			entries := ActivateLorebook(*in.Lorebook, in.History)
			if len(entries) == 0 {
				continue
			}
			blocks := make([]string, 0, len(entries))
			for i, content := range entries {
				blocks = append(blocks, fmt.Sprintf("[ENTRY №%d]\n%s", i+1, content))
			}
			messages = append(messages, systemTurn(strings.Join(blocks, "\n\n")))
		case SectionPersonaInfo:
			if in.Persona != nil {
				text := fmt.Sprintf("User Name: %s\nUser Description: %s", userName, userDescription)
				messages = append(messages, systemTurn(text))
			}
		case SectionAuthorNotes:
			if notes := strings.TrimSpace(in.AuthorNotes); notes != "" {
				messages = append(messages, systemTurn(notes))
			}
		default:
			// Unknown section names are skipped.
		}
	}

	messages = append(messages, a.historyTurns(ctx, in)...)
	messages = append(messages, types.ChatTurn{Role: types.RoleUser, Content: in.UserMessage})
	return messages
}

// historyTurns injects either the verbatim history or, when smart memory
// applies, ranked long-term fragments plus a short raw tail.
func (a *Assembler) historyTurns(ctx context.Context, in Input) []types.ChatTurn {
	if !in.SmartMemory || len(in.History) < a.smartCutoff {
		return copyTurns(in.History)
	}

	window := memory.HistoryWindow(len(in.History))
	recent := in.History[len(in.History)-window:]
	segments := memory.SegmentTurns(recent)
	if len(segments) < 2 {
		return copyTurns(in.History)
	}

	fragments, err := a.ranker.Rank(ctx, segments, in.UserMessage, a.topK)
	if err != nil {
		slog.Warn("memory ranking failed, using raw history", "error", err, "character", in.CharacterName)
		return copyTurns(in.History)
	}

	var out []types.ChatTurn
	if len(fragments) > 0 {
		out = append(out, systemTurn("[LONG-TERM MEMORY]\n"+strings.Join(fragments, "\n\n")))
	}
	out = append(out, systemTurn("[SHORT-TERM MEMORY]\n"))
	tail := in.History
	if len(tail) > a.shortTerm {
		tail = tail[len(tail)-a.shortTerm:]
	}
	return append(out, copyTurns(tail)...)
}

func systemTurn(content string) types.ChatTurn {
	return types.ChatTurn{Role: types.RoleSystem, Content: content}
}

func copyTurns(turns []types.ChatTurn) []types.ChatTurn {
	out := make([]types.ChatTurn, len(turns))
	copy(out, turns)
	return out
}

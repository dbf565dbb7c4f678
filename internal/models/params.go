// Package models provides the chat-completion adapters. Every provider
// consumes the same assembled turn list and yields a stream of text
// fragments, so prompt assembly stays provider-neutral.
package models

import (
	"context"
	"fmt"
	"iter"

	"github.com/aria-companion/project-aria/internal/types"
)

// GenParams are the generation parameters forwarded to a provider.
// Zero-valued fields are omitted from the request.
type GenParams struct {
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
	Stop             []string
}

// Provider identifies a chat-completion backend.
type Provider int

const (
	ProviderOpenAI Provider = iota
	ProviderMistral
	ProviderLocal
	ProviderGemini
)

// ParseProvider maps a configuration string onto a Provider.
func ParseProvider(name string) (Provider, error) {
	switch name {
	case "openai":
		return ProviderOpenAI, nil
	case "mistral":
		return ProviderMistral, nil
	case "local":
		return ProviderLocal, nil
	case "gemini":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider %q", name)
	}
}

func (p Provider) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderMistral:
		return "mistral"
	case ProviderLocal:
		return "local"
	case ProviderGemini:
		return "gemini"
	default:
		return fmt.Sprintf("provider(%d)", int(p))
	}
}

// ChatModel is the chat-completion capability: it accepts the assembled
// message list and yields a finite, non-restartable stream of text
// fragments. Stream errors terminate the sequence.
type ChatModel interface {
	Name() string
	StreamCompletion(ctx context.Context, turns []types.ChatTurn, params GenParams) iter.Seq2[string, error]
}

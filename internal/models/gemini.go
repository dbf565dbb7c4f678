package models

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/aria-companion/project-aria/internal/types"
)

// geminiModel adapts the Gemini API to the ChatModel contract. Gemini has
// no system role in its content list, so system turns are folded into the
// system instruction in their assembled order.
type geminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed ChatModel.
func NewGeminiModel(ctx context.Context, apiKey, modelName string) (ChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiModel{client: client, model: modelName}, nil
}

func (m *geminiModel) Name() string {
	return fmt.Sprintf("gemini/%s", m.model)
}

func (m *geminiModel) StreamCompletion(ctx context.Context, turns []types.ChatTurn, params GenParams) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents, system := splitGeminiContents(turns)

		config := &genai.GenerateContentConfig{}
		if system != "" {
			config.SystemInstruction = genai.NewContentFromText(system, "system")
		}
		if params.MaxTokens > 0 {
			config.MaxOutputTokens = int32(params.MaxTokens)
		}
		if params.Temperature > 0 {
			config.Temperature = genai.Ptr(float32(params.Temperature))
		}
		if params.TopP > 0 {
			config.TopP = genai.Ptr(float32(params.TopP))
		}
		if params.FrequencyPenalty != 0 {
			config.FrequencyPenalty = genai.Ptr(float32(params.FrequencyPenalty))
		}
		if params.PresencePenalty != 0 {
			config.PresencePenalty = genai.Ptr(float32(params.PresencePenalty))
		}
		if len(params.Stop) > 0 {
			config.StopSequences = params.Stop
		}

		for resp, err := range m.client.Models.GenerateContentStream(ctx, m.model, contents, config) {
			if err != nil {
				slog.Error("gemini stream failed", "error", err.Error(), "model", m.model)
				yield("", fmt.Errorf("completion stream: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

// splitGeminiContents converts assembled turns into genai contents and a
// joined system instruction.
func splitGeminiContents(turns []types.ChatTurn) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case types.RoleSystem:
			system = append(system, turn.Content)
		case types.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Content, "model"))
		default:
			contents = append(contents, genai.NewContentFromText(turn.Content, "user"))
		}
	}
	return contents, strings.Join(system, "\n\n")
}

package models

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/aria-companion/project-aria/internal/types"
)

// Default base URLs for the OpenAI-compatible providers.
const (
	mistralBaseURL = "https://api.mistral.ai/v1"
	localServerURL = "http://localhost:8080/v1"
)

// openaiModel serves every OpenAI-compatible backend: OpenAI itself,
// Mistral's compatible endpoint, and a local llama.cpp-style server. One
// adapter instead of three keeps the request shape from drifting.
type openaiModel struct {
	client   *openai.Client
	provider Provider
	model    string
}

// NewOpenAIModel creates an adapter for the given OpenAI-compatible
// provider. baseURL overrides the provider default when non-empty; the
// local provider accepts an empty API key.
func NewOpenAIModel(provider Provider, apiKey, baseURL, modelName string) (ChatModel, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{}
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("API key is required")
		}
	case ProviderMistral:
		if apiKey == "" {
			return nil, fmt.Errorf("API key is required")
		}
		if baseURL == "" {
			baseURL = mistralBaseURL
		}
	case ProviderLocal:
		if baseURL == "" {
			baseURL = localServerURL
		}
	default:
		return nil, fmt.Errorf("provider %s is not OpenAI-compatible", provider)
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(opts...)
	return &openaiModel{
		client:   &client,
		provider: provider,
		model:    modelName,
	}, nil
}

func (m *openaiModel) Name() string {
	return fmt.Sprintf("%s/%s", m.provider, m.model)
}

// StreamCompletion streams text fragments for the assembled turns.
func (m *openaiModel) StreamCompletion(ctx context.Context, turns []types.ChatTurn, params GenParams) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		req := buildOpenAIParams(m.model, turns, params)

		stream := m.client.Chat.Completions.NewStreaming(ctx, req)
		defer func() {
			if err := stream.Close(); err != nil {
				slog.Error("failed to close completion stream", "error", err.Error(), "model", m.Name())
			}
		}()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				if !yield(delta, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			slog.Error("completion stream failed", "error", err.Error(), "model", m.Name())
			yield("", fmt.Errorf("completion stream: %w", err))
		}
	}
}

func buildOpenAIParams(model string, turns []types.ChatTurn, params GenParams) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case types.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case types.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	req := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = openai.Int(int64(params.MaxTokens))
	}
	if params.Temperature > 0 {
		req.Temperature = openai.Float(params.Temperature)
	}
	if params.TopP > 0 {
		req.TopP = openai.Float(params.TopP)
	}
	if params.FrequencyPenalty != 0 {
		req.FrequencyPenalty = openai.Float(params.FrequencyPenalty)
	}
	if params.PresencePenalty != 0 {
		req.PresencePenalty = openai.Float(params.PresencePenalty)
	}
	if len(params.Stop) > 0 {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: params.Stop}
	}
	return req
}

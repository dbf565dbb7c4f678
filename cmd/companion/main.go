// Command companion is a terminal chat frontend: it wires the document
// store, the prompt assembler, and a completion provider, then streams
// replies for lines read from stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aria-companion/project-aria/internal/agent"
	"github.com/aria-companion/project-aria/internal/config"
	"github.com/aria-companion/project-aria/internal/memory"
	"github.com/aria-companion/project-aria/internal/models"
	"github.com/aria-companion/project-aria/internal/prompt"
	"github.com/aria-companion/project-aria/internal/storage"
	"github.com/aria-companion/project-aria/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nshutting down...")
		cancel()
	}()

	docs, err := store.OpenJSON(cfg.DataPath)
	if err != nil {
		log.Fatalf("failed to open document store: %v", err)
	}

	cache := memory.NewModelCache(embedderFactory(cfg))

	var archive *memory.Archive
	if cfg.DatabaseURL != "" {
		repo, err := storage.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to archive database: %v", err)
		}
		defer repo.Close()
		archive = memory.NewArchive(cache, repo, cfg.TopK, cfg.SimilarityThreshold)
	}

	model, err := newChatModel(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to create chat model: %v", err)
	}

	assembler := prompt.NewAssembler(
		memory.NewRanker(cache),
		prompt.WithTopK(cfg.TopK),
		prompt.WithShortTermDepth(cfg.ShortTermDepth),
	)
	conversation := agent.NewConversation(docs, assembler, model, archive, models.GenParams{
		MaxTokens:        cfg.MaxTokens,
		Temperature:      cfg.Temperature,
		TopP:             cfg.TopP,
		FrequencyPenalty: cfg.FrequencyPenalty,
		PresencePenalty:  cfg.PresencePenalty,
	})

	fmt.Printf("chatting with %s via %s (/quit to exit)\n", cfg.Character, model.Name())
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		message := strings.TrimSpace(scanner.Text())
		if message == "/quit" {
			break
		}
		if message != "" {
			_, err := conversation.Send(ctx, cfg.Character, message, func(fragment string) {
				fmt.Print(fragment)
			})
			if err != nil {
				if errors.Is(err, context.Canceled) {
					break
				}
				fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			}
			fmt.Println()
		}
		fmt.Print("> ")
	}
}

func newChatModel(ctx context.Context, cfg config.Config) (models.ChatModel, error) {
	provider, err := models.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	switch provider {
	case models.ProviderGemini:
		return models.NewGeminiModel(ctx, cfg.APIKey, cfg.LLMModel)
	default:
		return models.NewOpenAIModel(provider, cfg.APIKey, cfg.BaseURL, cfg.LLMModel)
	}
}

func embedderFactory(cfg config.Config) func(context.Context) (memory.Embedder, error) {
	return func(ctx context.Context) (memory.Embedder, error) {
		if cfg.EmbeddingBackend == "genai" {
			return memory.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		}
		return memory.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel), nil
	}
}

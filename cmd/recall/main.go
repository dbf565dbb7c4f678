// Command recall searches the chat archive: it embeds a query and prints
// the most similar archived turns for a character.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/aria-companion/project-aria/internal/config"
	"github.com/aria-companion/project-aria/internal/memory"
	"github.com/aria-companion/project-aria/internal/storage"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: recall <query...>")
		os.Exit(2)
	}
	query := strings.Join(os.Args[1:], " ")

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required for recall")
	}
	if cfg.Character == "" {
		log.Fatal("CHARACTER is required")
	}

	ctx := context.Background()

	repo, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to archive database: %v", err)
	}
	defer repo.Close()

	cache := memory.NewModelCache(func(ctx context.Context) (memory.Embedder, error) {
		if cfg.EmbeddingBackend == "genai" {
			return memory.NewGenAIEmbedder(ctx, cfg.GoogleAPIKey, cfg.EmbeddingModel)
		}
		return memory.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel), nil
	})
	archive := memory.NewArchive(cache, repo, cfg.TopK, cfg.SimilarityThreshold)

	turns, err := archive.Search(ctx, cfg.Character, query)
	if err != nil {
		log.Fatalf("archive search failed: %v", err)
	}
	if len(turns) == 0 {
		fmt.Println("no archived turns matched")
		return
	}
	for i, turn := range turns {
		fmt.Printf("%d. [%.3f] %s (%s): %s\n", i+1, turn.Similarity, turn.Role, turn.CreatedAt.Format("2006-01-02 15:04"), turn.Content)
	}
}

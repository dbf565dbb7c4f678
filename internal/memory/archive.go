package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/aria-companion/project-aria/internal/types"
)

// ArchivedTurn is a past turn recalled from the archive.
type ArchivedTurn struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArchiveRepo persists turns with their embeddings and searches them by
// vector similarity.
type ArchiveRepo interface {
	AddTurn(ctx context.Context, character, chatID string, turn types.ChatTurn, embedding []float32) error
	SearchSimilar(ctx context.Context, character string, embedding []float32, topK int, threshold float64) ([]ArchivedTurn, error)
}

// Archive records completed exchanges into long-term storage and recalls
// them semantically across sessions.
type Archive struct {
	cache     *ModelCache
	repo      ArchiveRepo
	topK      int
	threshold float64
}

// NewArchive creates an Archive service.
func NewArchive(cache *ModelCache, repo ArchiveRepo, topK int, threshold float64) *Archive {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Archive{cache: cache, repo: repo, topK: topK, threshold: threshold}
}

// Record embeds and stores the given turns. Called only after a reply has
// fully streamed; assembly itself never writes.
func (a *Archive) Record(ctx context.Context, character, chatID string, turns []types.ChatTurn) error {
	embedder, err := a.cache.Embedder(ctx)
	if err != nil {
		return fmt.Errorf("failed to load embedding model: %w", err)
	}
	for _, turn := range turns {
		embedding, err := embedder.EmbedDocument(ctx, turn.Content)
		if err != nil {
			return fmt.Errorf("failed to embed turn: %w", err)
		}
		if err := a.repo.AddTurn(ctx, character, chatID, turn, embedding); err != nil {
			return err
		}
	}
	return nil
}

// Search returns the archived turns most similar to the query.
func (a *Archive) Search(ctx context.Context, character, query string) ([]ArchivedTurn, error) {
	if query == "" {
		return nil, nil
	}
	embedder, err := a.cache.Embedder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model: %w", err)
	}
	vec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return a.repo.SearchSimilar(ctx, character, vec, a.topK, a.threshold)
}

package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aria-companion/project-aria/internal/types"
)

// Ranker selects the chat segments most relevant to a query by cosine
// similarity of their embeddings.
type Ranker struct {
	cache *ModelCache
}

// NewRanker creates a Ranker on top of the shared model cache.
func NewRanker(cache *ModelCache) *Ranker {
	return &Ranker{cache: cache}
}

// Rank embeds every segment and the query, then returns the topK segments
// formatted as numbered memory fragments, most relevant first. Similarity
// ties keep the original segment order. Fewer than two segments yield an
// empty result; the caller is expected to fall back to raw history.
func (r *Ranker) Rank(ctx context.Context, segments []types.Segment, query string, topK int) ([]string, error) {
	if len(segments) < 2 || topK <= 0 {
		return nil, nil
	}

	embedder, err := r.cache.Embedder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedding model: %w", err)
	}

	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Text
	}
	vectors, err := embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed segments: %w", err)
	}
	if len(vectors) != len(segments) {
		return nil, fmt.Errorf("embedding count mismatch: got %d want %d", len(vectors), len(segments))
	}
	queryVec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	type scored struct {
		index      int
		similarity float64
	}
	ranking := make([]scored, len(segments))
	for i := range segments {
		ranking[i] = scored{index: i, similarity: CosineSimilarity(queryVec, vectors[i])}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].similarity > ranking[j].similarity
	})

	if topK > len(ranking) {
		topK = len(ranking)
	}
	fragments := make([]string, 0, topK)
	for rank, entry := range ranking[:topK] {
		fragments = append(fragments, formatFragment(rank+1, segments[entry.index]))
	}
	return fragments, nil
}

func formatFragment(number int, segment types.Segment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[MEMORY FRAGMENT #%d]", number)
	for _, turn := range segment.Turns {
		sb.WriteString("\n")
		sb.WriteString(strings.ToUpper(turn.Role))
		sb.WriteString(": ")
		sb.WriteString(turn.Content)
	}
	return sb.String()
}

// CosineSimilarity returns the cosine of the angle between two vectors,
// or 0 when either vector is empty, zero, or the dimensions differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

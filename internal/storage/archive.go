// Package storage persists completed chat turns to PostgreSQL with their
// embeddings, enabling cross-session semantic recall.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aria-companion/project-aria/internal/memory"
	"github.com/aria-companion/project-aria/internal/types"
)

type archivedTurnModel struct {
	ID        int
	Character string
	ChatID    string
	Role      string
	Content   string
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time
}

func (archivedTurnModel) TableName() string {
	return "chat_archive"
}

// ArchiveRepo is the gorm-backed implementation of memory.ArchiveRepo.
type ArchiveRepo struct {
	db *gorm.DB
}

var _ memory.ArchiveRepo = (*ArchiveRepo)(nil)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, databaseURL string) (*ArchiveRepo, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &ArchiveRepo{db: db}, nil
}

// AddTurn inserts one turn with its embedding. A missing embedding stores
// NULL; such rows are excluded from similarity search.
func (r *ArchiveRepo) AddTurn(ctx context.Context, character, chatID string, turn types.ChatTurn, embedding []float32) error {
	var vector *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vector = &v
	}
	record := archivedTurnModel{
		Character: character,
		ChatID:    chatID,
		Role:      turn.Role,
		Content:   turn.Content,
		Embedding: vector,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert archived turn: %w", err)
	}
	return nil
}

// SearchSimilar returns the topK archived turns above the similarity
// threshold, most similar first.
func (r *ArchiveRepo) SearchSimilar(ctx context.Context, character string, embedding []float32, topK int, threshold float64) ([]memory.ArchivedTurn, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT role, content, created_at, 1 - (embedding <=> $1) AS similarity
		FROM chat_archive
		WHERE character = $2
		  AND embedding IS NOT NULL
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY similarity DESC
		LIMIT $4`

	vector := pgvector.NewVector(embedding)
	var results []memory.ArchivedTurn
	if err := r.db.WithContext(ctx).
		Raw(query, vector, character, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}
	return results, nil
}

// Close releases the underlying connection pool.
func (r *ArchiveRepo) Close() {
	if r.db == nil {
		return
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}

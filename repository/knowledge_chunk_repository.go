package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"ergocare-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDimensionMismatch is returned when an embedding has the wrong length
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChunkStore is a knowledge-base backend that supports domain-filtered search
// and ingestion.
type ChunkStore interface {
	SearchByDomain(ctx context.Context, embedding []float64, domain models.RetrievalDomain, limit int) ([]models.KnowledgeChunk, error)
	InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error
	CountBySource(ctx context.Context, source string) (int, error)
}

// KnowledgeChunkRepository handles pgvector operations for knowledge chunks
type KnowledgeChunkRepository struct {
	db        *pgxpool.Pool
	dimension int
}

// NewKnowledgeChunkRepository creates a new knowledge chunk repository
func NewKnowledgeChunkRepository(db *pgxpool.Pool, dimension int) *KnowledgeChunkRepository {
	return &KnowledgeChunkRepository{db: db, dimension: dimension}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	var parts []string
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func checkDimension(embedding []float64, dimension int) error {
	if dimension > 0 && len(embedding) != dimension {
		return fmt.Errorf("%w: want %d, got %d", ErrDimensionMismatch, dimension, len(embedding))
	}
	return nil
}

// SearchByDomain returns the nearest chunks in one partition by cosine distance.
// An empty partition yields an empty slice, not an error.
func (r *KnowledgeChunkRepository) SearchByDomain(
	ctx context.Context,
	embedding []float64,
	domain models.RetrievalDomain,
	limit int,
) ([]models.KnowledgeChunk, error) {
	if err := checkDimension(embedding, r.dimension); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT
			id,
			chunk_text,
			source,
			domain,
			file_type,
			chunk_index,
			metadata,
			embedding <=> $1::vector AS distance
		FROM knowledge_chunks
		WHERE domain = $2
		ORDER BY
			embedding <=> $1::vector,
			source,
			chunk_index
		LIMIT $3`

	rows, err := r.db.Query(ctx, query, formatVector(embedding), string(domain), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.KnowledgeChunk
	for rows.Next() {
		var chunk models.KnowledgeChunk
		var domainName string
		err := rows.Scan(
			&chunk.ID,
			&chunk.Text,
			&chunk.Source,
			&domainName,
			&chunk.FileType,
			&chunk.ChunkIndex,
			&chunk.Metadata,
			&chunk.Distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge chunk: %w", err)
		}
		chunk.Domain = models.RetrievalDomain(domainName)
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge chunks: %w", err)
	}

	return chunks, nil
}

// InsertChunks stores the chunks of one document in a single transaction
func (r *KnowledgeChunkRepository) InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	for _, c := range chunks {
		if err := checkDimension(c.Embedding, r.dimension); err != nil {
			return fmt.Errorf("chunk %d of %s: %w", c.ChunkIndex, c.Source, err)
		}
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO knowledge_chunks (
			id, source, domain, file_type, chunk_index, chunk_text, metadata, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::vector)`

	for i := range chunks {
		chunk := &chunks[i]
		if chunk.ID == uuid.Nil {
			chunk.ID = uuid.New()
		}
		metadataJSON, err := json.Marshal(chunkMetadata(*chunk))
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			chunk.ID, chunk.Source, string(chunk.Domain), chunk.FileType, chunk.ChunkIndex,
			chunk.Text, string(metadataJSON), formatVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CountBySource returns how many chunks a document already has
func (r *KnowledgeChunkRepository) CountBySource(ctx context.Context, source string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM knowledge_chunks WHERE source = $1", source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for %s: %w", source, err)
	}
	return count, nil
}

// chunkMetadata merges the fixed retrieval metadata into the free-form map
func chunkMetadata(c models.KnowledgeChunk) map[string]interface{} {
	meta := make(map[string]interface{}, len(c.Metadata)+3)
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta["source"] = c.Source
	meta["domain"] = string(c.Domain)
	meta["file_type"] = c.FileType
	return meta
}

// cosineDistance matches pgvector's <=> operator
func cosineDistance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 2
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// rankChunks orders by distance with a stable tie-break and truncates to limit
func rankChunks(chunks []models.KnowledgeChunk, limit int) []models.KnowledgeChunk {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Distance != chunks[j].Distance {
			return chunks[i].Distance < chunks[j].Distance
		}
		if chunks[i].Source != chunks[j].Source {
			return chunks[i].Source < chunks[j].Source
		}
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	if limit < len(chunks) {
		chunks = chunks[:limit]
	}
	return chunks
}

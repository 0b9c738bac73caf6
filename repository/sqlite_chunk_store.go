package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ergocare-backend/models"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteChunkStore is a file-backed knowledge base for offline use.
// Embeddings are stored as JSON arrays and searched by brute force, which
// is adequate for a guidance corpus of a few thousand chunks.
type SQLiteChunkStore struct {
	db        *sql.DB
	dimension int
}

// NewSQLiteChunkStore opens (or creates) the database at path and runs migrations
func NewSQLiteChunkStore(path string, dimension int) (*SQLiteChunkStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &SQLiteChunkStore{db: db, dimension: dimension}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteChunkStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteChunkStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS knowledge_chunks (
			id          TEXT PRIMARY KEY,
			source      TEXT    NOT NULL,
			domain      TEXT    NOT NULL,
			file_type   TEXT    NOT NULL DEFAULT '',
			chunk_index INTEGER NOT NULL,
			chunk_text  TEXT    NOT NULL,
			metadata    TEXT    NOT NULL DEFAULT '{}',
			embedding   TEXT    NOT NULL,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_domain ON knowledge_chunks(domain);
		CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_source ON knowledge_chunks(source);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteChunkStore) SearchByDomain(ctx context.Context, embedding []float64, domain models.RetrievalDomain, limit int) ([]models.KnowledgeChunk, error) {
	if err := checkDimension(embedding, s.dimension); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chunk_text, source, domain, file_type, chunk_index, metadata, embedding
		FROM knowledge_chunks
		WHERE domain = ?`, string(domain))
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.KnowledgeChunk
	for rows.Next() {
		var (
			chunk      models.KnowledgeChunk
			id         string
			domainName string
			metaJSON   string
			vecJSON    string
		)
		if err := rows.Scan(&id, &chunk.Text, &chunk.Source, &domainName, &chunk.FileType, &chunk.ChunkIndex, &metaJSON, &vecJSON); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge chunk: %w", err)
		}
		if chunk.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid chunk id %q: %w", id, err)
		}
		chunk.Domain = models.RetrievalDomain(domainName)
		if err := json.Unmarshal([]byte(metaJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("invalid metadata for chunk %s: %w", id, err)
		}
		var vec []float64
		if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
			return nil, fmt.Errorf("invalid embedding for chunk %s: %w", id, err)
		}
		chunk.Distance = cosineDistance(embedding, vec)
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge chunks: %w", err)
	}

	return rankChunks(chunks, limit), nil
}

func (s *SQLiteChunkStore) InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	for _, c := range chunks {
		if err := checkDimension(c.Embedding, s.dimension); err != nil {
			return fmt.Errorf("chunk %d of %s: %w", c.ChunkIndex, c.Source, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range chunks {
		chunk := &chunks[i]
		if chunk.ID == uuid.Nil {
			chunk.ID = uuid.New()
		}
		metaJSON, err := json.Marshal(chunkMetadata(*chunk))
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		vecJSON, err := json.Marshal(chunk.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO knowledge_chunks (id, source, domain, file_type, chunk_index, chunk_text, metadata, embedding)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			chunk.ID.String(), chunk.Source, string(chunk.Domain), chunk.FileType, chunk.ChunkIndex,
			chunk.Text, string(metaJSON), string(vecJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteChunkStore) CountBySource(ctx context.Context, source string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM knowledge_chunks WHERE source = ?", source).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for %s: %w", source, err)
	}
	return count, nil
}

package repository

import (
	"context"
	"sync"

	"ergocare-backend/models"

	"github.com/google/uuid"
)

// MemoryChunkStore is an in-process knowledge base using brute-force cosine
// similarity. It is safe for concurrent use.
type MemoryChunkStore struct {
	mu        sync.RWMutex
	dimension int
	chunks    map[models.RetrievalDomain][]models.KnowledgeChunk
}

func NewMemoryChunkStore(dimension int) *MemoryChunkStore {
	return &MemoryChunkStore{
		dimension: dimension,
		chunks:    make(map[models.RetrievalDomain][]models.KnowledgeChunk),
	}
}

func (s *MemoryChunkStore) SearchByDomain(ctx context.Context, embedding []float64, domain models.RetrievalDomain, limit int) ([]models.KnowledgeChunk, error) {
	if err := checkDimension(embedding, s.dimension); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	stored := s.chunks[domain]
	results := make([]models.KnowledgeChunk, len(stored))
	copy(results, stored)
	s.mu.RUnlock()

	for i := range results {
		results[i].Distance = cosineDistance(embedding, results[i].Embedding)
	}
	return rankChunks(results, limit), nil
}

func (s *MemoryChunkStore) InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error {
	for _, c := range chunks {
		if err := checkDimension(c.Embedding, s.dimension); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		c.Metadata = chunkMetadata(c)
		c.Embedding = append([]float64(nil), c.Embedding...)
		s.chunks[c.Domain] = append(s.chunks[c.Domain], c)
	}
	return nil
}

func (s *MemoryChunkStore) CountBySource(ctx context.Context, source string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, list := range s.chunks {
		for _, c := range list {
			if c.Source == source {
				n++
			}
		}
	}
	return n, nil
}

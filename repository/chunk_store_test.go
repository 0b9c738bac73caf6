package repository

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"ergocare-backend/models"
)

func sampleChunks() []models.KnowledgeChunk {
	return []models.KnowledgeChunk{
		{Text: "Keep the monitor at eye level.", Source: "vision.md", Domain: models.RetrievalVision, FileType: "md", ChunkIndex: 0, Embedding: []float64{1, 0, 0}},
		{Text: "Follow the 20-20-20 rule.", Source: "vision.md", Domain: models.RetrievalVision, FileType: "md", ChunkIndex: 1, Embedding: []float64{0.6, 0.8, 0}},
		{Text: "Support the lumbar curve.", Source: "posture.md", Domain: models.RetrievalPosture, FileType: "md", ChunkIndex: 0, Embedding: []float64{0, 0, 1}},
		{Text: "Take micro-breaks.", Source: "vision.txt", Domain: models.RetrievalVision, FileType: "txt", ChunkIndex: 0, Embedding: []float64{0, 1, 0}},
	}
}

func exerciseStore(t *testing.T, store ChunkStore) {
	t.Helper()
	ctx := context.Background()

	if err := store.InsertChunks(ctx, sampleChunks()); err != nil {
		t.Fatalf("InsertChunks() error: %v", err)
	}

	got, err := store.SearchByDomain(ctx, []float64{1, 0, 0}, models.RetrievalVision, 2)
	if err != nil {
		t.Fatalf("SearchByDomain() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("SearchByDomain() returned %d chunks, want 2", len(got))
	}
	if got[0].Text != "Keep the monitor at eye level." || got[1].Text != "Follow the 20-20-20 rule." {
		t.Errorf("order = [%q, %q], want nearest first", got[0].Text, got[1].Text)
	}
	if math.Abs(got[0].Distance) > 1e-9 {
		t.Errorf("Distance = %v, want 0 for identical vectors", got[0].Distance)
	}
	for _, c := range got {
		if c.Domain != models.RetrievalVision {
			t.Errorf("chunk from domain %q leaked into vision search", c.Domain)
		}
		if c.Metadata["source"] != c.Source {
			t.Errorf("metadata source = %v, want %q", c.Metadata["source"], c.Source)
		}
	}

	empty, err := store.SearchByDomain(ctx, []float64{1, 0, 0}, models.RetrievalCognitive, 5)
	if err != nil {
		t.Fatalf("SearchByDomain(empty) error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty partition returned %d chunks", len(empty))
	}

	n, err := store.CountBySource(ctx, "vision.md")
	if err != nil {
		t.Fatalf("CountBySource() error: %v", err)
	}
	if n != 2 {
		t.Errorf("CountBySource(vision.md) = %d, want 2", n)
	}

	_, err = store.SearchByDomain(ctx, []float64{1, 0}, models.RetrievalVision, 2)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("short query error = %v, want ErrDimensionMismatch", err)
	}
}

func TestMemoryChunkStore(t *testing.T) {
	exerciseStore(t, NewMemoryChunkStore(3))
}

func TestSQLiteChunkStore(t *testing.T) {
	store, err := NewSQLiteChunkStore(filepath.Join(t.TempDir(), "kb", "knowledge.db"), 3)
	if err != nil {
		t.Fatalf("NewSQLiteChunkStore() error: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestSQLiteChunkStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.db")
	store, err := NewSQLiteChunkStore(path, 3)
	if err != nil {
		t.Fatalf("NewSQLiteChunkStore() error: %v", err)
	}
	if err := store.InsertChunks(context.Background(), sampleChunks()[:1]); err != nil {
		t.Fatalf("InsertChunks() error: %v", err)
	}
	store.Close()

	store, err = NewSQLiteChunkStore(path, 3)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer store.Close()
	n, err := store.CountBySource(context.Background(), "vision.md")
	if err != nil || n != 1 {
		t.Errorf("CountBySource() = %d, %v; want 1", n, err)
	}
}

func TestInsertChunks_RejectsWrongDimension(t *testing.T) {
	store := NewMemoryChunkStore(3)
	bad := []models.KnowledgeChunk{{Source: "x.md", Domain: models.RetrievalGeneral, Embedding: []float64{1}}}
	if err := store.InsertChunks(context.Background(), bad); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("InsertChunks() error = %v, want ErrDimensionMismatch", err)
	}
}

func TestRankChunks_TieBreakIsStable(t *testing.T) {
	chunks := []models.KnowledgeChunk{
		{Source: "b.md", ChunkIndex: 0, Distance: 0.1},
		{Source: "a.md", ChunkIndex: 1, Distance: 0.1},
		{Source: "a.md", ChunkIndex: 0, Distance: 0.1},
		{Source: "c.md", ChunkIndex: 0, Distance: 0.05},
	}
	got := rankChunks(chunks, 3)
	want := []string{"c.md#0", "a.md#0", "a.md#1"}
	for i, c := range got {
		id := c.Source + "#" + string(rune('0'+c.ChunkIndex))
		if id != want[i] {
			t.Errorf("rank %d = %s, want %s", i, id, want[i])
		}
	}
}

func TestFormatVector(t *testing.T) {
	if got := formatVector([]float64{0.5, -1}); got != "[0.500000,-1.000000]" {
		t.Errorf("formatVector() = %q", got)
	}
	if got := formatVector(nil); got != "[]" {
		t.Errorf("formatVector(nil) = %q", got)
	}
}

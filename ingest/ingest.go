package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"ergocare-backend/models"

	"github.com/ledongthuc/pdf"
)

// PolicyDir is the knowledge-base subdirectory whose Markdown is always policy
const PolicyDir = "policy"

var supportedExts = map[string]bool{".md": true, ".txt": true, ".pdf": true}

// BatchEmbedder embeds many texts in one call, in order
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// ChunkWriter is the part of a chunk store ingestion needs
type ChunkWriter interface {
	InsertChunks(ctx context.Context, chunks []models.KnowledgeChunk) error
	CountBySource(ctx context.Context, source string) (int, error)
}

// Document is one knowledge-base file. PDFs carry one entry per page in
// Pages and are classified page by page; other files carry Text.
type Document struct {
	Source   string // slash-separated path relative to the knowledge-base root
	FileType string
	Text     string
	Pages    []string
	Policy   bool
	Err      error // set when the file could not be parsed
}

func (d Document) pages() []string {
	if d.FileType == "pdf" {
		return d.Pages
	}
	return []string{d.Text}
}

// ReadPDF extracts the plain text of each page in order. A page without
// content yields an empty string.
func ReadPDF(data []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// Collect walks root for supported documents in lexical order
func Collect(root string) ([]Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("knowledge base not found: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("knowledge base %s is not a directory", root)
	}

	var docs []Document
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !supportedExts[ext] {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", rel, err)
		}

		doc := Document{
			Source:   rel,
			FileType: strings.TrimPrefix(ext, "."),
			Policy:   ext == ".md" && strings.HasPrefix(rel, PolicyDir+"/"),
		}
		if ext == ".pdf" {
			doc.Pages, doc.Err = ReadPDF(content)
		} else {
			doc.Text = string(content)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Stats summarises one ingestion run
type Stats struct {
	Documents int
	Skipped   int
	Failed    int
	Chunks    int
	ByDomain  map[models.RetrievalDomain]int
}

// Ingester embeds and stores knowledge-base documents
type Ingester struct {
	store      ChunkWriter
	embedder   BatchEmbedder
	classifier *DomainClassifier
	chunker    *Chunker
}

// NewIngester creates an ingester
func NewIngester(store ChunkWriter, embedder BatchEmbedder, classifier *DomainClassifier, chunker *Chunker) *Ingester {
	return &Ingester{
		store:      store,
		embedder:   embedder,
		classifier: classifier,
		chunker:    chunker,
	}
}

// Run ingests every document under root. A document that fails is logged
// and counted; it does not stop the run. Documents that already have
// chunks are skipped.
func (in *Ingester) Run(ctx context.Context, root string) (*Stats, error) {
	docs, err := Collect(root)
	if err != nil {
		return nil, err
	}

	stats := &Stats{ByDomain: make(map[models.RetrievalDomain]int)}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Documents++

		if doc.Err != nil {
			log.Printf("Error: Failed to parse %s: %v", doc.Source, doc.Err)
			stats.Failed++
			continue
		}

		existing, err := in.store.CountBySource(ctx, doc.Source)
		if err != nil {
			log.Printf("Warning: Failed to check existing chunks for %s: %v", doc.Source, err)
		} else if existing > 0 {
			log.Printf("Skipping %s (already ingested: %d chunks)", doc.Source, existing)
			stats.Skipped++
			continue
		}

		counts, err := in.IngestDocument(ctx, doc)
		if err != nil {
			log.Printf("Error: Failed to ingest %s: %v", doc.Source, err)
			stats.Failed++
			continue
		}
		n := 0
		for d, c := range counts {
			stats.ByDomain[d] += c
			n += c
		}
		log.Printf("Ingested %s (%d chunks)", doc.Source, n)
		stats.Chunks += n
	}
	return stats, nil
}

// IngestDocument classifies, chunks, embeds and stores one document in a
// single insert. Each PDF page is classified on its own. It returns the
// number of chunks stored per domain.
func (in *Ingester) IngestDocument(ctx context.Context, doc Document) (map[models.RetrievalDomain]int, error) {
	var chunks []models.KnowledgeChunk
	for i, page := range doc.pages() {
		domain, err := in.domainFor(ctx, doc, i, page)
		if err != nil {
			return nil, err
		}

		texts, err := in.chunker.Split(page)
		if err != nil {
			return nil, err
		}
		for _, text := range texts {
			meta := map[string]interface{}{"title": path.Base(doc.Source)}
			if doc.FileType == "pdf" {
				meta["page"] = i + 1
			}
			chunks = append(chunks, models.KnowledgeChunk{
				Text:       text,
				Source:     doc.Source,
				Domain:     domain,
				FileType:   doc.FileType,
				ChunkIndex: len(chunks),
				Metadata:   meta,
			})
		}
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(embeddings), len(texts))
	}

	counts := make(map[models.RetrievalDomain]int)
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
		counts[chunks[i].Domain]++
	}
	if err := in.store.InsertChunks(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}
	return counts, nil
}

func (in *Ingester) domainFor(ctx context.Context, doc Document, page int, text string) (models.RetrievalDomain, error) {
	if doc.Policy {
		return models.RetrievalPolicy, nil
	}
	if in.classifier == nil {
		return "", errors.New("domain classifier not set")
	}
	d, score, err := in.classifier.Classify(ctx, text)
	if err != nil {
		return "", fmt.Errorf("failed to classify: %w", err)
	}
	if doc.FileType == "pdf" {
		log.Printf("Classified %s page %d as %s (similarity %.3f)", doc.Source, page+1, d, score)
	} else {
		log.Printf("Classified %s as %s (similarity %.3f)", doc.Source, d, score)
	}
	return d, nil
}

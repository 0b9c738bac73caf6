package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
)

const (
	maxRetries     = 3
	initialBackoff = time.Second
	batchSize      = 100 // Google's API limit
)

// GeminiGenerator completes prompts with a Gemini model
type GeminiGenerator struct {
	model *genai.GenerativeModel
}

// NewGeminiGenerator configures sampling once; the model is safe for concurrent use
func NewGeminiGenerator(client *genai.Client, modelName string, temperature, topP float32) *GeminiGenerator {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	return &GeminiGenerator{model: model}
}

func (g *GeminiGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("API blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("API returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonUnspecified {
		log.Printf("Warning: Candidate finished with reason: %s", candidate.FinishReason)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("API candidate has no parts (finish reason: %s)", candidate.FinishReason)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("API returned empty content")
	}
	return text.String(), nil
}

// GeminiEmbedder embeds text with a Gemini embedding model. Vectors are
// L2-normalised so cosine distance is well defined across stores.
type GeminiEmbedder struct {
	model     *genai.EmbeddingModel
	dimension int
}

// NewGeminiEmbedder creates an embedder for one task type. Queries and
// documents use different task types.
func NewGeminiEmbedder(client *genai.Client, modelName string, task genai.TaskType, dimension int) *GeminiEmbedder {
	model := client.EmbeddingModel(modelName)
	model.TaskType = task
	return &GeminiEmbedder{model: model, dimension: dimension}
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepContext(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
		}

		res, err := e.model.EmbedContent(ctx, genai.Text(text))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if res.Embedding == nil {
			lastErr = errors.New("empty embedding")
			continue
		}
		return e.finish(res.Embedding.Values)
	}
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrEmbeddingFailed, maxRetries, lastErr)
}

// EmbedBatch embeds many texts, honouring the API batch limit
func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch := e.model.NewBatch()
		for _, t := range texts[i:end] {
			batch.AddContent(genai.Text(t))
		}

		res, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
		}
		if len(res.Embeddings) != end-i {
			return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbeddingFailed, len(res.Embeddings), end-i)
		}
		for k, emb := range res.Embeddings {
			if emb == nil {
				return nil, fmt.Errorf("%w: text %d has empty embedding", ErrEmbeddingFailed, i+k)
			}
			vec, err := e.finish(emb.Values)
			if err != nil {
				return nil, err
			}
			out = append(out, vec)
		}
	}
	return out, nil
}

func (e *GeminiEmbedder) finish(values []float32) ([]float64, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrEmbeddingFailed)
	}
	if e.dimension > 0 && len(values) != e.dimension {
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", ErrEmbeddingFailed, e.dimension, len(values))
	}
	vec := make([]float64, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}
	normalizeEmbedding(vec)
	return vec, nil
}

// SerializedEmbedder guards an embedder that is not safe for concurrent use
type SerializedEmbedder struct {
	mu    sync.Mutex
	inner Embedder
}

func NewSerializedEmbedder(inner Embedder) *SerializedEmbedder {
	return &SerializedEmbedder{inner: inner}
}

func (s *SerializedEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Embed(ctx, text)
}

func normalizeEmbedding(embedding []float64) {
	var sumSq float64
	for _, v := range embedding {
		sumSq += v * v
	}
	norm := math.Sqrt(sumSq)
	if norm == 0 {
		return
	}
	for i := range embedding {
		embedding[i] /= norm
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

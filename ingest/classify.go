package ingest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"ergocare-backend/models"
)

// DefaultMinSimilarity is the anchor similarity below which a document is
// filed under general guidance
const DefaultMinSimilarity = 0.35

// classifyPrefix bounds how much of a document is embedded for routing
const classifyPrefix = 1500

// Embedder produces a single embedding
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Anchors describe each classifiable partition. Policy is never inferred;
// it comes from the directory layout.
var Anchors = []Anchor{
	{models.RetrievalPosture, "neck pain, back pain, sitting posture, chair support, lumbar support, " +
		"spine alignment, musculoskeletal discomfort, shoulder pain, awkward posture, " +
		"ergonomic chair, posture correction"},
	{models.RetrievalVision, "eye strain, screen exposure, computer vision syndrome, dry eyes, " +
		"brightness, glare, monitor height, blue light, visual fatigue, blurred vision"},
	{models.RetrievalCognitive, "stress, burnout, mental workload, fatigue, anxiety, concentration issues, " +
		"work pressure, cognitive load, emotional exhaustion"},
	{models.RetrievalGeneral, "ergonomics guidelines, workplace health, preventive habits, health safety, " +
		"general recommendations, ergonomic risk prevention"},
}

// Anchor is the descriptive text a partition is recognised by
type Anchor struct {
	Domain models.RetrievalDomain
	Text   string
}

type anchorVector struct {
	domain    models.RetrievalDomain
	embedding []float64
}

// DomainClassifier routes documents to a partition by cosine similarity
// against the anchor embeddings
type DomainClassifier struct {
	embedder      Embedder
	anchors       []anchorVector
	minSimilarity float64
}

// NewDomainClassifier embeds every anchor once up front
func NewDomainClassifier(ctx context.Context, embedder Embedder, anchors []Anchor, minSimilarity float64) (*DomainClassifier, error) {
	c := &DomainClassifier{embedder: embedder, minSimilarity: minSimilarity}
	for _, a := range anchors {
		emb, err := embedder.Embed(ctx, a.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %s anchor: %w", a.Domain, err)
		}
		c.anchors = append(c.anchors, anchorVector{domain: a.Domain, embedding: emb})
	}
	return c, nil
}

// Classify returns the best-matching partition. Blank text and weak matches
// go to general; ties keep the earlier anchor.
func (c *DomainClassifier) Classify(ctx context.Context, text string) (models.RetrievalDomain, float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.RetrievalGeneral, 0, nil
	}
	if r := []rune(text); len(r) > classifyPrefix {
		text = string(r[:classifyPrefix])
	}

	emb, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return "", 0, err
	}

	best := models.RetrievalGeneral
	bestScore := -1.0
	for _, a := range c.anchors {
		if score := cosineSimilarity(emb, a.embedding); score > bestScore {
			best, bestScore = a.domain, score
		}
	}
	if bestScore < c.minSimilarity {
		return models.RetrievalGeneral, bestScore, nil
	}
	return best, bestScore, nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

package service

import (
	"context"
	"log"
	"time"

	"ergocare-backend/models"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// VectorSearcher runs a domain-filtered similarity search
type VectorSearcher interface {
	SearchByDomain(ctx context.Context, embedding []float64, domain models.RetrievalDomain, limit int) ([]models.KnowledgeChunk, error)
}

// RetrievalRole decides how many documents a partition gets
type RetrievalRole int

const (
	RolePolicy RetrievalRole = iota
	RolePrimary
	RoleHigh
	RoleModerate
	RoleSymptom // routed by a symptom flag alone
)

// RetrievalWeights are per-role document counts
type RetrievalWeights struct {
	Policy   int `json:"policy"`
	Primary  int `json:"primary"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
}

// DefaultRetrievalWeights gives the primary domain double a moderate domain's count
func DefaultRetrievalWeights() RetrievalWeights {
	return RetrievalWeights{Policy: 5, Primary: 6, High: 4, Moderate: 3}
}

func (w RetrievalWeights) CountFor(role RetrievalRole) int {
	switch role {
	case RolePolicy:
		return w.Policy
	case RolePrimary:
		return w.Primary
	case RoleHigh:
		return w.High
	default:
		return w.Moderate
	}
}

// RoleFor classifies a routed partition. The primary role needs the
// driver itself to be elevated; a Low driver routed by symptom alone is not
// weighted up.
func RoleFor(d models.RetrievalDomain, interp models.RiskInterpretation) RetrievalRole {
	if d == models.RetrievalPolicy {
		return RolePolicy
	}
	scored := ScoredDomainsFor(d)
	for _, s := range scored {
		if s == interp.PrimaryDriver && interp.Elevated(s) {
			return RolePrimary
		}
	}
	role := RoleSymptom
	for _, s := range scored {
		switch interp.LevelFor(s) {
		case models.RiskHigh:
			return RoleHigh
		case models.RiskModerate:
			role = RoleModerate
		}
	}
	return role
}

// Counts resolves the document count for each routed partition
func (w RetrievalWeights) Counts(domains []models.RetrievalDomain, interp models.RiskInterpretation) map[models.RetrievalDomain]int {
	counts := make(map[models.RetrievalDomain]int, len(domains))
	for _, d := range domains {
		counts[d] = w.CountFor(RoleFor(d, interp))
	}
	return counts
}

// Retriever fetches grounding evidence per partition. Failures degrade a
// partition to empty rather than failing the request.
type Retriever struct {
	embedder      Embedder
	searcher      VectorSearcher
	embedTimeout  time.Duration
	searchTimeout time.Duration
}

// NewRetriever creates a retriever; a zero timeout means none
func NewRetriever(embedder Embedder, searcher VectorSearcher, embedTimeout, searchTimeout time.Duration) *Retriever {
	return &Retriever{
		embedder:      embedder,
		searcher:      searcher,
		embedTimeout:  embedTimeout,
		searchTimeout: searchTimeout,
	}
}

// Retrieve runs one search per domain, in order, and assembles the context
func (r *Retriever) Retrieve(
	ctx context.Context,
	domains []models.RetrievalDomain,
	queries map[models.RetrievalDomain]string,
	counts map[models.RetrievalDomain]int,
) models.GroundedContext {
	groups := make([]models.DomainChunks, 0, len(domains))
	for _, d := range domains {
		groups = append(groups, models.DomainChunks{
			Domain: d,
			Chunks: r.retrieveDomain(ctx, d, queries[d], counts[d]),
		})
	}
	return AssembleContext(groups)
}

func (r *Retriever) retrieveDomain(ctx context.Context, domain models.RetrievalDomain, query string, limit int) []models.KnowledgeChunk {
	if limit <= 0 {
		return nil
	}
	if query == "" {
		log.Printf("Warning: No retrieval query for domain %s", domain)
		return nil
	}

	embedCtx, cancel := withOptionalTimeout(ctx, r.embedTimeout)
	embedding, err := r.embedder.Embed(embedCtx, query)
	cancel()
	if err != nil {
		log.Printf("Warning: Failed to embed query for domain %s: %v", domain, err)
		return nil
	}

	searchCtx, cancel := withOptionalTimeout(ctx, r.searchTimeout)
	chunks, err := r.searcher.SearchByDomain(searchCtx, embedding, domain, limit)
	cancel()
	if err != nil {
		log.Printf("Warning: Failed to retrieve %s documents: %v", domain, err)
		return nil
	}
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

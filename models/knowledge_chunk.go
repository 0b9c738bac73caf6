package models

import (
	"fmt"

	"github.com/google/uuid"
)

// RetrievalDomain is a knowledge-base partition used to filter similarity search
type RetrievalDomain string

const (
	RetrievalPolicy    RetrievalDomain = "policy"
	RetrievalPosture   RetrievalDomain = "posture"
	RetrievalVision    RetrievalDomain = "vision"
	RetrievalCognitive RetrievalDomain = "cognitive"
	RetrievalGeneral   RetrievalDomain = "general"
)

// RetrievalDomains lists the closed set of partitions
var RetrievalDomains = []RetrievalDomain{
	RetrievalPolicy, RetrievalPosture, RetrievalVision, RetrievalCognitive, RetrievalGeneral,
}

// ParseRetrievalDomain validates a partition name
func ParseRetrievalDomain(s string) (RetrievalDomain, error) {
	for _, d := range RetrievalDomains {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown retrieval domain: %q", s)
}

// KnowledgeChunk represents a chunk of guidance text from the knowledge base
type KnowledgeChunk struct {
	ID         uuid.UUID              `json:"id"`
	Text       string                 `json:"text"`
	Source     string                 `json:"source"`
	Domain     RetrievalDomain        `json:"domain"`
	FileType   string                 `json:"file_type"`
	ChunkIndex int                    `json:"chunk_index"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Embedding  []float64              `json:"-"`
	Distance   float64                `json:"distance,omitempty"` // Vector similarity distance
}

// DomainChunks is the retrieval result for one partition, in rank order
type DomainChunks struct {
	Domain RetrievalDomain  `json:"domain"`
	Chunks []KnowledgeChunk `json:"chunks"`
}

// GroundedContext is the evidence supplied to the report generator
type GroundedContext struct {
	Groups   []DomainChunks `json:"groups"`
	Rendered string         `json:"-"`
	Sources  []string       `json:"sources"`
}

// HasSource reports whether src is one of the verified sources
func (g GroundedContext) HasSource(src string) bool {
	for _, s := range g.Sources {
		if s == src {
			return true
		}
	}
	return false
}

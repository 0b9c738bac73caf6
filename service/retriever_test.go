package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ergocare-backend/models"
)

// --- RetrievalWeights ---

func TestRetrievalWeights_Counts(t *testing.T) {
	interp := models.RiskInterpretation{
		PrimaryDriver:   models.DomainPosture,
		HighDomains:     []models.Domain{models.DomainPosture, models.DomainVisual},
		ModerateDomains: []models.Domain{models.DomainMSK},
	}
	domains := []models.RetrievalDomain{
		models.RetrievalPolicy, models.RetrievalPosture, models.RetrievalVision,
		models.RetrievalCognitive, models.RetrievalGeneral,
	}
	w := DefaultRetrievalWeights()
	got := w.Counts(domains, interp)

	want := map[models.RetrievalDomain]int{
		models.RetrievalPolicy:    5,
		models.RetrievalPosture:   6,
		models.RetrievalVision:    4,
		models.RetrievalCognitive: 3, // symptom only
		models.RetrievalGeneral:   3,
	}
	for d, n := range want {
		if got[d] != n {
			t.Errorf("count for %s = %d, want %d", d, got[d], n)
		}
	}
	if w.Primary != 2*w.Moderate {
		t.Errorf("primary count %d should double moderate count %d", w.Primary, w.Moderate)
	}
}

func TestRoleFor_LowPrimaryIsNotWeightedUp(t *testing.T) {
	interp := models.RiskInterpretation{PrimaryDriver: models.DomainPosture}
	if got := RoleFor(models.RetrievalPosture, interp); got != RoleSymptom {
		t.Errorf("RoleFor() = %v, want RoleSymptom", got)
	}
}

// --- Retriever ---

func TestRetriever_EmptyDomainRendersNoDocuments(t *testing.T) {
	searcher := &stubSearcher{chunks: map[models.RetrievalDomain][]models.KnowledgeChunk{
		models.RetrievalPolicy: {{Text: "Not medical advice.", Source: "policy/disclaimer.md"}},
	}}
	r := NewRetriever(&stubEmbedder{}, searcher, 0, 0)
	domains := []models.RetrievalDomain{models.RetrievalPolicy, models.RetrievalVision}
	queries := map[models.RetrievalDomain]string{models.RetrievalPolicy: PolicyQuery, models.RetrievalVision: "eyes"}
	counts := map[models.RetrievalDomain]int{models.RetrievalPolicy: 5, models.RetrievalVision: 3}

	gctx := r.Retrieve(context.Background(), domains, queries, counts)

	if !strings.Contains(gctx.Rendered, "===== DOMAIN: VISION =====\nNO DOCUMENTS FOUND.") {
		t.Errorf("Rendered missing empty-domain note:\n%s", gctx.Rendered)
	}
	if len(gctx.Sources) != 1 || gctx.Sources[0] != "policy/disclaimer.md" {
		t.Errorf("Sources = %v", gctx.Sources)
	}
	if len(searcher.calls) != 2 || searcher.calls[0].limit != 5 || searcher.calls[1].limit != 3 {
		t.Errorf("search calls = %+v, want limits 5 then 3", searcher.calls)
	}
}

func TestRetriever_SearchErrorDegradesToEmpty(t *testing.T) {
	searcher := &stubSearcher{
		chunks: map[models.RetrievalDomain][]models.KnowledgeChunk{
			models.RetrievalPolicy: {{Text: "p", Source: "policy.md"}},
		},
		errs: map[models.RetrievalDomain]error{models.RetrievalPosture: errors.New("connection reset")},
	}
	r := NewRetriever(&stubEmbedder{}, searcher, 0, 0)
	domains := []models.RetrievalDomain{models.RetrievalPolicy, models.RetrievalPosture}
	queries := map[models.RetrievalDomain]string{models.RetrievalPolicy: "a", models.RetrievalPosture: "b"}
	counts := map[models.RetrievalDomain]int{models.RetrievalPolicy: 5, models.RetrievalPosture: 6}

	gctx := r.Retrieve(context.Background(), domains, queries, counts)

	if len(gctx.Groups) != 2 || len(gctx.Groups[1].Chunks) != 0 {
		t.Fatalf("Groups = %+v, want posture degraded to empty", gctx.Groups)
	}
	if !strings.Contains(gctx.Rendered, "NO DOCUMENTS FOUND.") {
		t.Error("degraded domain should render NO DOCUMENTS FOUND.")
	}
}

func TestRetriever_EmbedErrorSkipsSearch(t *testing.T) {
	searcher := &stubSearcher{}
	r := NewRetriever(&stubEmbedder{err: errors.New("quota")}, searcher, 0, 0)
	gctx := r.Retrieve(context.Background(),
		[]models.RetrievalDomain{models.RetrievalPolicy},
		map[models.RetrievalDomain]string{models.RetrievalPolicy: PolicyQuery},
		map[models.RetrievalDomain]int{models.RetrievalPolicy: 5})

	if len(searcher.calls) != 0 {
		t.Errorf("search called %d times after embed failure", len(searcher.calls))
	}
	if len(gctx.Sources) != 0 {
		t.Errorf("Sources = %v, want none", gctx.Sources)
	}
}

func TestRetriever_TruncatesToLimit(t *testing.T) {
	many := make([]models.KnowledgeChunk, 10)
	for i := range many {
		many[i] = models.KnowledgeChunk{Text: "x", Source: "s.md"}
	}
	searcher := &stubSearcher{chunks: map[models.RetrievalDomain][]models.KnowledgeChunk{models.RetrievalGeneral: many}}
	r := NewRetriever(&stubEmbedder{}, searcher, 0, 0)
	gctx := r.Retrieve(context.Background(),
		[]models.RetrievalDomain{models.RetrievalGeneral},
		map[models.RetrievalDomain]string{models.RetrievalGeneral: "q"},
		map[models.RetrievalDomain]int{models.RetrievalGeneral: 3})
	if n := len(gctx.Groups[0].Chunks); n != 3 {
		t.Errorf("len(chunks) = %d, want 3", n)
	}
}

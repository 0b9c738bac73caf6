package cache

import (
	"testing"

	"ergocare-backend/models"
)

func TestCacheKey_StableAndSensitive(t *testing.T) {
	interp := models.RiskInterpretation{
		RiskLabel:     models.RiskHigh,
		PrimaryDriver: models.DomainPosture,
		HighDomains:   []models.Domain{models.DomainPosture},
	}
	idx := models.RiskIndices{Posture: 75, Overall: 40}
	domains := []models.RetrievalDomain{models.RetrievalPolicy, models.RetrievalPosture}

	a := CacheKey(interp, idx, domains)
	b := CacheKey(interp, idx, domains)
	if a != b {
		t.Errorf("CacheKey not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len(CacheKey) = %d, want 64 hex chars", len(a))
	}

	idx.Posture = 76
	if CacheKey(interp, idx, domains) == a {
		t.Error("CacheKey ignored an index change")
	}
	idx.Posture = 75
	if CacheKey(interp, idx, domains[:1]) == a {
		t.Error("CacheKey ignored a domain change")
	}
}

func TestReportKey_Prefix(t *testing.T) {
	c := &reportCache{}
	if got := c.reportKey("abc"); got != "report:abc" {
		t.Errorf("reportKey() = %q, want report:abc", got)
	}
}

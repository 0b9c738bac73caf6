package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ergocare-backend/classifier"
	"ergocare-backend/models"
	"ergocare-backend/repository"
	"ergocare-backend/scoring"
	"ergocare-backend/storage"

	"github.com/google/uuid"
)

type serviceFixture struct {
	svc      *AssessmentService
	store    *memoryAssessmentStore
	gen      *stubGenerator
	searcher *repository.MemoryChunkStore
	archive  *storage.LocalStorage
}

func newServiceFixture(t *testing.T, extra ...AssessmentServiceOption) *serviceFixture {
	t.Helper()

	searcher := repository.NewMemoryChunkStore(3)
	seed := []models.KnowledgeChunk{
		{Text: "Recommendations are not medical advice.", Source: "policy/disclaimer.md", Domain: models.RetrievalPolicy, Embedding: []float64{1, 0, 0}},
		{Text: "Keep the top of the screen at eye level.", Source: "posture/monitor.md", Domain: models.RetrievalPosture, Embedding: []float64{1, 0, 0}},
		{Text: "Use a chair with lumbar support.", Source: "posture/chair.md", Domain: models.RetrievalPosture, ChunkIndex: 1, Embedding: []float64{0.9, 0.1, 0}},
	}
	if err := searcher.InsertChunks(context.Background(), seed); err != nil {
		t.Fatalf("InsertChunks() error: %v", err)
	}

	archive, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error: %v", err)
	}

	gen := &stubGenerator{text: completeReport}
	store := newMemoryAssessmentStore()
	opts := []AssessmentServiceOption{
		WithClassifier(classifier.NewAdapter(classifier.NewRuleModel(scoring.DefaultWeights().Overall))),
		WithRetriever(NewRetriever(&stubEmbedder{}, searcher, 0, 0)),
		WithReportGenerator(NewReportGenerator(gen, DefaultReportStrategy(), 0)),
		WithAssessmentStore(store),
		WithReportArchive(archive),
	}
	opts = append(opts, extra...)

	return &serviceFixture{
		svc:      NewAssessmentService(opts...),
		store:    store,
		gen:      gen,
		searcher: searcher,
		archive:  archive,
	}
}

// --- Predict ---

func TestPredict_LowRiskProfile(t *testing.T) {
	f := newServiceFixture(t)
	res, err := f.svc.Predict(context.Background(), PredictRequest{Survey: lowRiskSurvey()})
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}

	a := res.Assessment
	if a.Prediction.RiskLabel != models.RiskLow {
		t.Errorf("RiskLabel = %s, want Low", a.Prediction.RiskLabel)
	}
	if len(a.RiskDrivers.HighDomains) != 0 || len(a.RiskDrivers.ModerateDomains) != 0 {
		t.Errorf("RiskDrivers = %+v, want no elevated domains", a.RiskDrivers)
	}
	if a.RiskDrivers.Primary != models.DomainLifestyle {
		t.Errorf("Primary = %s, want lifestyle", a.RiskDrivers.Primary)
	}
	if a.Report != nil {
		t.Error("Predict must not produce a report")
	}

	sum := a.ModelProbabilities.Low + a.ModelProbabilities.Moderate + a.ModelProbabilities.High
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("probabilities sum to %v", sum)
	}

	stored, err := f.svc.GetAssessment(context.Background(), a.AssessmentID)
	if err != nil {
		t.Fatalf("GetAssessment() error: %v", err)
	}
	if stored.Status != models.AssessmentScored || stored.RiskLabel != models.RiskLow {
		t.Errorf("stored = %+v", stored)
	}
}

func TestPredict_InvalidSurvey(t *testing.T) {
	f := newServiceFixture(t)
	s := lowRiskSurvey()
	delete(s, "neck_pain")
	s["eye_strain"] = float64(9)

	_, err := f.svc.Predict(context.Background(), PredictRequest{Survey: s})
	if !errors.Is(err, scoring.ErrValidation) {
		t.Fatalf("Predict() error = %v, want ErrValidation", err)
	}
	if n := len(scoring.FieldErrors(err)); n != 2 {
		t.Errorf("len(FieldErrors) = %d, want 2", n)
	}
	if len(f.store.records) != 0 {
		t.Error("invalid survey must not be persisted")
	}
}

func TestPredict_ClassifierNotSet(t *testing.T) {
	svc := NewAssessmentService()
	_, err := svc.Predict(context.Background(), PredictRequest{Survey: lowRiskSurvey()})
	if !errors.Is(err, ErrClassifierNotSet) {
		t.Errorf("Predict() error = %v, want ErrClassifierNotSet", err)
	}
}

// --- Report ---

func TestReport_LowRiskRetrievesPolicyOnly(t *testing.T) {
	f := newServiceFixture(t)
	res, err := f.svc.Report(context.Background(), ReportRequest{Survey: lowRiskSurvey()})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	if len(res.Domains) != 1 || res.Domains[0] != models.RetrievalPolicy {
		t.Errorf("Domains = %v, want [policy]", res.Domains)
	}
	if len(res.Assessment.EvidenceSources) != 1 || res.Assessment.EvidenceSources[0] != "policy/disclaimer.md" {
		t.Errorf("EvidenceSources = %v", res.Assessment.EvidenceSources)
	}
	if res.Assessment.Report == nil || *res.Assessment.Report != res.Report.Text {
		t.Error("assessment report should match generated text")
	}
}

func TestReport_PoorLifestyleStillPolicyOnly(t *testing.T) {
	survey := lowRiskSurvey()
	survey["sleep_hours"] = "Less than 5 hours"
	survey["physical_activity"] = "Sedentary"
	survey["hydration"] = "Less than 1 litre"

	f := newServiceFixture(t)
	res, err := f.svc.Report(context.Background(), ReportRequest{Survey: survey})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	if res.Assessment.Prediction.RiskLabel != models.RiskLow {
		t.Fatalf("RiskLabel = %s, want Low", res.Assessment.Prediction.RiskLabel)
	}
	if res.Assessment.RiskIndices.Lifestyle < 65 {
		t.Fatalf("Lifestyle = %v, want a High lifestyle index", res.Assessment.RiskIndices.Lifestyle)
	}
	if len(res.Domains) != 1 || res.Domains[0] != models.RetrievalPolicy {
		t.Errorf("Domains = %v, want [policy]", res.Domains)
	}

	strategy := DefaultReportStrategy()
	strategy.IncludeGeneral = true
	f = newServiceFixture(t, WithReportGenerator(NewReportGenerator(&stubGenerator{text: completeReport}, strategy, 0)))
	res, err = f.svc.Report(context.Background(), ReportRequest{Survey: survey})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	want := []models.RetrievalDomain{models.RetrievalPolicy, models.RetrievalGeneral}
	if !equalRetrieval(res.Domains, want) {
		t.Errorf("IncludeGeneral: Domains = %v, want %v", res.Domains, want)
	}
}

func TestReport_PostureHighIsPrimaryAndRouted(t *testing.T) {
	f := newServiceFixture(t)
	res, err := f.svc.Report(context.Background(), ReportRequest{Survey: postureRiskSurvey()})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	a := res.Assessment
	if a.RiskDrivers.Primary != models.DomainPosture {
		t.Errorf("Primary = %s, want posture", a.RiskDrivers.Primary)
	}
	if len(a.RiskDrivers.HighDomains) != 1 || a.RiskDrivers.HighDomains[0] != models.DomainPosture {
		t.Errorf("HighDomains = %v, want [posture]", a.RiskDrivers.HighDomains)
	}
	if !containsDomain(res.Domains, models.RetrievalPosture) || res.Domains[0] != models.RetrievalPolicy {
		t.Errorf("Domains = %v, want policy then posture", res.Domains)
	}
	for _, src := range []string{"posture/monitor.md", "posture/chair.md"} {
		found := false
		for _, s := range a.EvidenceSources {
			if s == src {
				found = true
			}
		}
		if !found {
			t.Errorf("EvidenceSources = %v, missing %s", a.EvidenceSources, src)
		}
	}

	stored := f.store.records[a.AssessmentID]
	if stored == nil || stored.Status != models.AssessmentReported || stored.ReportPath == nil {
		t.Fatalf("stored = %+v, want reported with archive path", stored)
	}
	rc, err := f.archive.Download(context.Background(), *stored.ReportPath)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != res.Report.Text {
		t.Error("archived report differs from returned text")
	}
}

func TestReport_TimeoutPropagates(t *testing.T) {
	f := newServiceFixture(t,
		WithReportGenerator(NewReportGenerator(&stubGenerator{block: true}, DefaultReportStrategy(), 0)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.svc.Report(ctx, ReportRequest{Survey: postureRiskSurvey()})
	if !errors.Is(err, ErrGenerationTimeout) {
		t.Errorf("Report() error = %v, want ErrGenerationTimeout", err)
	}
}

func TestReport_CacheHitSkipsGeneration(t *testing.T) {
	c := &memoryReportCache{reports: map[string]*models.Report{}}
	f := newServiceFixture(t, WithReportCache(c))

	first, err := f.svc.Report(context.Background(), ReportRequest{Survey: postureRiskSurvey()})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	second, err := f.svc.Report(context.Background(), ReportRequest{Survey: postureRiskSurvey()})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	if first.Cached || !second.Cached {
		t.Errorf("Cached = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if len(f.gen.prompts) != 1 {
		t.Errorf("generator called %d times, want 1", len(f.gen.prompts))
	}
	if second.Report.Text != first.Report.Text {
		t.Error("cached report text differs")
	}
	if first.Assessment.AssessmentID == second.Assessment.AssessmentID {
		t.Error("each request should get its own assessment id")
	}
}

func TestReport_AttachFailureRemovesArchivedCopy(t *testing.T) {
	f := newServiceFixture(t)
	f.store.fail = true

	res, err := f.svc.Report(context.Background(), ReportRequest{Survey: lowRiskSurvey()})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}

	_, err = f.archive.Download(context.Background(), storage.ReportKey(res.Assessment.AssessmentID))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}

func TestReport_NoStoreSkipsArchive(t *testing.T) {
	f := newServiceFixture(t, WithAssessmentStore(nil))

	res, err := f.svc.Report(context.Background(), ReportRequest{Survey: lowRiskSurvey()})
	if err != nil {
		t.Fatalf("Report() error: %v", err)
	}
	if res.Assessment.Report == nil {
		t.Fatal("report text should still be returned")
	}

	_, err = f.archive.Download(context.Background(), storage.ReportKey(res.Assessment.AssessmentID))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Download() error = %v, want ErrNotFound", err)
	}
}

func TestReport_GeneratorNotSet(t *testing.T) {
	svc := NewAssessmentService(
		WithClassifier(classifier.NewAdapter(classifier.NewRuleModel(scoring.DefaultWeights().Overall))))
	_, err := svc.Report(context.Background(), ReportRequest{Survey: lowRiskSurvey()})
	if !errors.Is(err, ErrReportGeneratorNotSet) {
		t.Errorf("Report() error = %v, want ErrReportGeneratorNotSet", err)
	}
}

func TestGetAssessment_StoreNotSet(t *testing.T) {
	svc := NewAssessmentService()
	_, err := svc.GetAssessment(context.Background(), uuid.Nil)
	if !errors.Is(err, ErrAssessmentStoreNotSet) {
		t.Errorf("GetAssessment() error = %v, want ErrAssessmentStoreNotSet", err)
	}
}

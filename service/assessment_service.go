package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"ergocare-backend/cache"
	"ergocare-backend/models"
	"ergocare-backend/scoring"
	"ergocare-backend/storage"

	"github.com/google/uuid"
)

// Classifier predicts a risk class from the domain indices
type Classifier interface {
	Predict(ctx context.Context, idx models.RiskIndices) (models.ClassificationResult, error)
}

// AssessmentStore persists scored assessments
type AssessmentStore interface {
	Create(ctx context.Context, a *models.Assessment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Assessment, error)
	AttachReport(ctx context.Context, id uuid.UUID, text string, path *string) error
}

// ReportArchive keeps a copy of each generated report
type ReportArchive interface {
	Upload(ctx context.Context, key string, data io.Reader) (string, error)
	Delete(ctx context.Context, storagePath string) error
}

// AssessmentService runs the scoring and grounded-report pipeline
type AssessmentService struct {
	encoder     *scoring.Encoder
	builder     *scoring.Builder
	classifier  Classifier
	interpreter *scoring.Interpreter
	retriever   *Retriever
	reports     *ReportGenerator
	weights     RetrievalWeights
	store       AssessmentStore
	archive     ReportArchive
	cache       cache.ReportCache
}

// AssessmentServiceOption is a functional option for AssessmentService
type AssessmentServiceOption func(*AssessmentService)

// WithEncoder sets the survey encoder
func WithEncoder(enc *scoring.Encoder) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.encoder = enc
	}
}

// WithFeatureBuilder sets the index builder
func WithFeatureBuilder(b *scoring.Builder) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.builder = b
	}
}

// WithClassifier sets the risk classifier
func WithClassifier(c Classifier) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.classifier = c
	}
}

// WithInterpreter sets the risk interpreter
func WithInterpreter(in *scoring.Interpreter) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.interpreter = in
	}
}

// WithRetriever sets the evidence retriever
func WithRetriever(r *Retriever) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.retriever = r
	}
}

// WithReportGenerator sets the report generator and its retrieval weights
func WithReportGenerator(g *ReportGenerator) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.reports = g
		s.weights = g.Strategy().Weights
	}
}

// WithAssessmentStore sets the assessment store
func WithAssessmentStore(store AssessmentStore) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.store = store
	}
}

// WithReportArchive sets the report archive
func WithReportArchive(archive ReportArchive) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.archive = archive
	}
}

// WithReportCache sets the report cache
func WithReportCache(c cache.ReportCache) AssessmentServiceOption {
	return func(s *AssessmentService) {
		s.cache = c
	}
}

// NewAssessmentService creates a new assessment service
func NewAssessmentService(opts ...AssessmentServiceOption) *AssessmentService {
	s := &AssessmentService{
		encoder:     scoring.NewEncoder(scoring.DefaultMaxHours),
		builder:     scoring.NewBuilder(scoring.DefaultWeights()),
		interpreter: scoring.NewInterpreter(scoring.DefaultThresholds()),
		weights:     DefaultRetrievalWeights(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PredictRequest carries one raw survey
type PredictRequest struct {
	Survey models.SurveyResponse
}

// PredictResult is the scored assessment
type PredictResult struct {
	Assessment *models.AssessmentResult
}

// ReportRequest carries one raw survey
type ReportRequest struct {
	Survey models.SurveyResponse
}

// ReportResult is the scored assessment with its grounded report
type ReportResult struct {
	Assessment *models.AssessmentResult
	Report     *models.Report
	Domains    []models.RetrievalDomain
	Cached     bool
}

type scored struct {
	encoded models.EncodedResponse
	indices models.RiskIndices
	interp  models.RiskInterpretation
	result  *models.AssessmentResult
}

func (s *AssessmentService) score(ctx context.Context, survey models.SurveyResponse) (*scored, error) {
	if s.classifier == nil {
		return nil, ErrClassifierNotSet
	}

	encoded, err := s.encoder.Encode(survey)
	if err != nil {
		return nil, err
	}

	indices := s.builder.BuildIndices(encoded)

	classification, err := s.classifier.Predict(ctx, indices)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	interp := s.interpreter.Interpret(classification, indices)
	return &scored{
		encoded: encoded,
		indices: indices,
		interp:  interp,
		result:  models.NewAssessmentResult(uuid.New(), interp, indices),
	}, nil
}

// Predict encodes, scores, classifies and interprets one survey
func (s *AssessmentService) Predict(ctx context.Context, req PredictRequest) (*PredictResult, error) {
	sc, err := s.score(ctx, req.Survey)
	if err != nil {
		return nil, err
	}
	s.persist(ctx, sc, nil)
	return &PredictResult{Assessment: sc.result}, nil
}

// Report runs Predict, then retrieves evidence and generates a grounded report
func (s *AssessmentService) Report(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	if s.reports == nil {
		return nil, ErrReportGeneratorNotSet
	}

	sc, err := s.score(ctx, req.Survey)
	if err != nil {
		return nil, err
	}

	flags := scoring.DeriveSymptomFlags(sc.encoded)
	domains := SelectDomains(sc.interp, flags)
	if s.reports.Strategy().IncludeGeneral {
		domains = WithGeneral(domains, sc.interp)
	}
	s.persist(ctx, sc, domains)

	var cacheKey string
	var report *models.Report
	cached := false
	if s.cache != nil {
		cacheKey = cache.CacheKey(sc.interp, sc.indices, domains)
		hit, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			log.Printf("Warning: Failed to read report cache: %v", err)
		} else if hit != nil {
			report, cached = hit, true
		}
	}

	if report == nil {
		if s.retriever == nil {
			return nil, ErrRetrieverNotSet
		}
		queries := BuildQueries(sc.interp, flags, domains)
		counts := s.weights.Counts(domains, sc.interp)
		gctx := s.retriever.Retrieve(ctx, domains, queries, counts)

		report, err = s.reports.Generate(ctx, sc.interp, sc.indices, gctx)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey, report); err != nil {
				log.Printf("Warning: Failed to cache report: %v", err)
			}
		}
	}

	s.attachReport(ctx, sc.result.AssessmentID, report.Text)

	text := report.Text
	sc.result.Report = &text
	sc.result.EvidenceSources = report.Sources
	if sc.result.EvidenceSources == nil {
		sc.result.EvidenceSources = []string{}
	}

	return &ReportResult{
		Assessment: sc.result,
		Report:     report,
		Domains:    domains,
		Cached:     cached,
	}, nil
}

// GetAssessment retrieves a stored assessment by ID
func (s *AssessmentService) GetAssessment(ctx context.Context, id uuid.UUID) (*models.Assessment, error) {
	if s.store == nil {
		return nil, ErrAssessmentStoreNotSet
	}
	return s.store.GetByID(ctx, id)
}

// persist records a scored assessment. Failures are logged, not returned.
func (s *AssessmentService) persist(ctx context.Context, sc *scored, domains []models.RetrievalDomain) {
	if s.store == nil {
		return
	}
	names := make([]string, len(domains))
	for i, d := range domains {
		names[i] = string(d)
	}
	a := &models.Assessment{
		ID:              sc.result.AssessmentID,
		Status:          models.AssessmentScored,
		RiskLabel:       sc.interp.RiskLabel,
		ConfidenceScore: sc.interp.ConfidenceScore,
		PrimaryDriver:   sc.interp.PrimaryDriver,
		Indices:         sc.indices,
		Probabilities:   sc.result.ModelProbabilities,
		Domains:         names,
	}
	if err := s.store.Create(ctx, a); err != nil {
		log.Printf("Warning: Failed to store assessment %s: %v", a.ID, err)
	}
}

// attachReport archives the report and links it to the stored assessment.
// Without a store there is no row to link, so nothing is archived. An
// archived copy is removed again when the link cannot be written.
func (s *AssessmentService) attachReport(ctx context.Context, id uuid.UUID, text string) {
	if s.store == nil {
		return
	}

	var path *string
	if s.archive != nil {
		p, err := s.archive.Upload(ctx, storage.ReportKey(id), strings.NewReader(text))
		if err != nil {
			log.Printf("Warning: Failed to archive report for %s: %v", id, err)
		} else {
			path = &p
		}
	}

	if err := s.store.AttachReport(ctx, id, text, path); err != nil {
		log.Printf("Warning: Failed to attach report to assessment %s: %v", id, err)
		if path != nil {
			if err := s.archive.Delete(ctx, *path); err != nil {
				log.Printf("Warning: Failed to remove orphaned report %s: %v", *path, err)
			}
		}
	}
}

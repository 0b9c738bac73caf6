package service

import (
	"context"
	"errors"
	"sync"

	"ergocare-backend/models"

	"github.com/google/uuid"
)

type stubEmbedder struct {
	err   error
	mu    sync.Mutex
	texts []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	return []float64{1, 0, 0}, nil
}

type searchCall struct {
	domain models.RetrievalDomain
	limit  int
}

type stubSearcher struct {
	chunks map[models.RetrievalDomain][]models.KnowledgeChunk
	errs   map[models.RetrievalDomain]error
	calls  []searchCall
}

func (s *stubSearcher) SearchByDomain(_ context.Context, _ []float64, domain models.RetrievalDomain, limit int) ([]models.KnowledgeChunk, error) {
	s.calls = append(s.calls, searchCall{domain, limit})
	if err := s.errs[domain]; err != nil {
		return nil, err
	}
	return s.chunks[domain], nil
}

type stubGenerator struct {
	text    string
	err     error
	block   bool
	prompts []string
}

func (g *stubGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.text, g.err
}

type memoryAssessmentStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.Assessment
	fail    bool
}

func newMemoryAssessmentStore() *memoryAssessmentStore {
	return &memoryAssessmentStore{records: make(map[uuid.UUID]*models.Assessment)}
}

func (m *memoryAssessmentStore) Create(_ context.Context, a *models.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *a
	m.records[a.ID] = &copied
	return nil
}

func (m *memoryAssessmentStore) GetByID(_ context.Context, id uuid.UUID) (*models.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

func (m *memoryAssessmentStore) AttachReport(_ context.Context, id uuid.UUID, text string, path *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("database unavailable")
	}
	a, ok := m.records[id]
	if !ok {
		return errors.New("not found")
	}
	a.Status = models.AssessmentReported
	a.ReportText = &text
	a.ReportPath = path
	return nil
}

type memoryReportCache struct {
	reports map[string]*models.Report
}

func (c *memoryReportCache) Get(_ context.Context, key string) (*models.Report, error) {
	return c.reports[key], nil
}

func (c *memoryReportCache) Set(_ context.Context, key string, report *models.Report) error {
	c.reports[key] = report
	return nil
}

// completeReport follows the full section schema and cites one source
const completeReport = `### Ergonomic Recommendation Report
Overall Risk Level: Low

## Key Contributors
- Posture

## Posture
Risk Level: High
Recommendations:
- Raise the monitor [SOURCE: posture.md]
Why This Helps:
- Neutral neck angle

## Vision
Risk Level: Low
Recommendations:
- No recommendation needed
Why This Helps:
- n/a

## Cognitive
Risk Level: Low
Recommendations:
- No recommendation needed
Why This Helps:
- n/a

## Musculoskeletal
Risk Level: Low
Recommendations:
- No recommendation needed
Why This Helps:
- n/a

## Lifestyle
Risk Level: Low
Recommendations:
- No recommendation needed
Why This Helps:
- n/a

## Break Schedule
- Stand every 30 minutes

## Workstation Checklist
- [ ] Monitor at eye level

## Evidence Sources
- [SOURCE: posture.md]

## Disclaimer
Not medical advice.`

// lowRiskSurvey is a complete response with minimal workload, no pain and
// full wellbeing.
func lowRiskSurvey() models.SurveyResponse {
	return models.SurveyResponse{
		"consent":                  "Yes",
		"age_group":                "31-40",
		"department":               "Computer Science",
		"designation":              "Associate Professor",
		"experience_years":         "6-10",
		"marital_status":           "Married",
		"teaching_hours":           float64(0),
		"admin_hours":              float64(0),
		"weekend_work":             "Never",
		"role_overload":            float64(1),
		"publish_pressure":         "No",
		"workspace_setup":          "Adjustable Chair and Setup",
		"screen_position":          "At eye level",
		"feet_support":             "Yes",
		"sitting_duration":         "Less than 30 mins",
		"neck_pain":                float64(0),
		"lower_back_pain":          float64(0),
		"wrist_pain":               float64(0),
		"shoulder_pain":            float64(0),
		"leg_pain":                 float64(0),
		"eye_strain":               float64(0),
		"most_discomfort_activity": "Typing",
		"sleep_hours":              "7 - 8 hours",
		"physical_activity":        "Active",
		"hydration":                "More than 2 litres",
		"commute_time":             "Less than 30 mins",
		"who5_q1":                  "All of the time",
		"who5_q2":                  "All of the time",
		"who5_q3":                  "All of the time",
		"who5_q4":                  "All of the time",
		"who5_q5":                  "All of the time",
	}
}

func postureRiskSurvey() models.SurveyResponse {
	s := lowRiskSurvey()
	s["neck_pain"] = float64(5)
	s["lower_back_pain"] = float64(5)
	s["sitting_duration"] = "More than 2 hours"
	s["workspace_setup"] = "Couch / Bed"
	return s
}

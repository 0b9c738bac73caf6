package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus represents how far an assessment got through the pipeline
type AssessmentStatus string

const (
	AssessmentScored   AssessmentStatus = "scored"
	AssessmentReported AssessmentStatus = "reported"
)

// Prediction is the classifier verdict in response form
type Prediction struct {
	RiskLabel       RiskLevel `json:"risk_label"`
	Confidence      string    `json:"confidence"`
	ConfidenceScore float64   `json:"confidence_score"`
}

// RiskDrivers names the domains behind the verdict
type RiskDrivers struct {
	Primary         Domain   `json:"primary"`
	HighDomains     []Domain `json:"high_domains"`
	ModerateDomains []Domain `json:"moderate_domains"`
}

// ModelProbabilities is the class probability simplex in response form
type ModelProbabilities struct {
	Low      float64 `json:"low"`
	Moderate float64 `json:"moderate"`
	High     float64 `json:"high"`
}

// Value implements driver.Valuer for JSONB
func (m ModelProbabilities) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB
func (m *ModelProbabilities) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// AssessmentResult is the structured response for one survey
type AssessmentResult struct {
	AssessmentID       uuid.UUID          `json:"assessment_id"`
	Prediction         Prediction         `json:"prediction"`
	RiskDrivers        RiskDrivers        `json:"risk_drivers"`
	RiskIndices        RiskIndices        `json:"risk_indices"`
	ModelProbabilities ModelProbabilities `json:"model_probabilities"`
	Report             *string            `json:"report,omitempty"`
	EvidenceSources    []string           `json:"evidence_sources,omitempty"`
}

// NewAssessmentResult shapes an interpretation into the response form
func NewAssessmentResult(id uuid.UUID, interp RiskInterpretation, indices RiskIndices) *AssessmentResult {
	high := interp.HighDomains
	if high == nil {
		high = []Domain{}
	}
	moderate := interp.ModerateDomains
	if moderate == nil {
		moderate = []Domain{}
	}
	return &AssessmentResult{
		AssessmentID: id,
		Prediction: Prediction{
			RiskLabel:       interp.RiskLabel,
			Confidence:      interp.Confidence,
			ConfidenceScore: interp.ConfidenceScore,
		},
		RiskDrivers: RiskDrivers{
			Primary:         interp.PrimaryDriver,
			HighDomains:     high,
			ModerateDomains: moderate,
		},
		RiskIndices: indices,
		ModelProbabilities: ModelProbabilities{
			Low:      interp.Probabilities[LabelLow],
			Moderate: interp.Probabilities[LabelModerate],
			High:     interp.Probabilities[LabelHigh],
		},
	}
}

// Report is the generated recommendation text
type Report struct {
	Text     string   `json:"text"`
	Sources  []string `json:"sources"`
	Warnings []string `json:"warnings,omitempty"`
}

// Assessment is the persisted record of one scored survey
type Assessment struct {
	ID              uuid.UUID          `json:"id"`
	Status          AssessmentStatus   `json:"status"`
	RiskLabel       RiskLevel          `json:"risk_label"`
	ConfidenceScore float64            `json:"confidence_score"`
	PrimaryDriver   Domain             `json:"primary_driver"`
	Indices         RiskIndices        `json:"risk_indices"`
	Probabilities   ModelProbabilities `json:"model_probabilities"`
	Domains         []string           `json:"retrieval_domains"`
	ReportText      *string            `json:"report,omitempty"`
	ReportPath      *string            `json:"report_path,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

package models

import (
	"database/sql/driver"
	"encoding/json"
)

// RiskLevel is the categorical output of the classifier and interpreter
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Class labels as emitted by the classification model
const (
	LabelLow      = 0
	LabelModerate = 1
	LabelHigh     = 2
)

// RiskLevelForLabel maps a model class index to its risk level.
// The boolean is false for indices outside the closed label set.
func RiskLevelForLabel(label int) (RiskLevel, bool) {
	switch label {
	case LabelLow:
		return RiskLow, true
	case LabelModerate:
		return RiskModerate, true
	case LabelHigh:
		return RiskHigh, true
	default:
		return "", false
	}
}

// Domain names one of the five scored risk domains
type Domain string

const (
	DomainPosture   Domain = "posture"
	DomainVisual    Domain = "visual"
	DomainCognitive Domain = "cognitive"
	DomainMSK       Domain = "msk"
	DomainLifestyle Domain = "lifestyle"
)

// DomainOrder is the fixed priority order used for tie-breaking and for
// every ordered domain list in the risk profile.
var DomainOrder = []Domain{DomainPosture, DomainVisual, DomainCognitive, DomainMSK, DomainLifestyle}

// RiskIndices holds the composite indices, each in [0,100]
type RiskIndices struct {
	Posture       float64 `json:"posture_risk_index"`
	VisualStrain  float64 `json:"visual_strain_index"`
	CognitiveLoad float64 `json:"cognitive_load_index"`
	MSK           float64 `json:"msk_risk_index"`
	Lifestyle     float64 `json:"lifestyle_risk_index"`
	Overall       float64 `json:"overall_risk_index"`
}

// Domain returns the index value for one of the five domains
func (r RiskIndices) Domain(d Domain) float64 {
	switch d {
	case DomainPosture:
		return r.Posture
	case DomainVisual:
		return r.VisualStrain
	case DomainCognitive:
		return r.CognitiveLoad
	case DomainMSK:
		return r.MSK
	case DomainLifestyle:
		return r.Lifestyle
	default:
		return 0
	}
}

// FeatureByName resolves a model feature name to its index value.
// Both the long column names and the short domain names are accepted.
func (r RiskIndices) FeatureByName(name string) (float64, bool) {
	switch name {
	case "posture_risk_index", string(DomainPosture):
		return r.Posture, true
	case "visual_strain_index", string(DomainVisual):
		return r.VisualStrain, true
	case "cognitive_load_index", string(DomainCognitive):
		return r.CognitiveLoad, true
	case "msk_risk_index", string(DomainMSK):
		return r.MSK, true
	case "lifestyle_risk_index", string(DomainLifestyle):
		return r.Lifestyle, true
	default:
		return 0, false
	}
}

// Value implements driver.Valuer for JSONB
func (r RiskIndices) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for JSONB
func (r *RiskIndices) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// ClassificationResult is the unmarshalled classifier output
type ClassificationResult struct {
	Label         int        `json:"label"`
	Probabilities [3]float64 `json:"probabilities"`
}

// Confidence returns the largest class probability
func (c ClassificationResult) Confidence() float64 {
	best := c.Probabilities[0]
	for _, p := range c.Probabilities[1:] {
		if p > best {
			best = p
		}
	}
	return best
}

// RiskInterpretation is the categorical reading of one assessment
type RiskInterpretation struct {
	RiskLabel       RiskLevel  `json:"risk_label"`
	Confidence      string     `json:"confidence"`
	ConfidenceScore float64    `json:"confidence_score"`
	PrimaryDriver   Domain     `json:"primary"`
	HighDomains     []Domain   `json:"high_domains"`
	ModerateDomains []Domain   `json:"moderate_domains"`
	Probabilities   [3]float64 `json:"-"`
}

// LevelFor reports the banded level of a single domain. Domains that are
// neither high nor moderate read as Low.
func (r RiskInterpretation) LevelFor(d Domain) RiskLevel {
	for _, h := range r.HighDomains {
		if h == d {
			return RiskHigh
		}
	}
	for _, m := range r.ModerateDomains {
		if m == d {
			return RiskModerate
		}
	}
	return RiskLow
}

// Elevated is true when the domain is moderate or high
func (r RiskInterpretation) Elevated(d Domain) bool {
	return r.LevelFor(d) != RiskLow
}

// SymptomFlags are qualitative symptoms that trigger retrieval on their own
type SymptomFlags struct {
	NeckDiscomfort bool `json:"neck_discomfort"`
	EyeStrain      bool `json:"eye_strain"`
	ElevatedStress bool `json:"elevated_stress"`
}

func scanJSON(value interface{}, dst interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}

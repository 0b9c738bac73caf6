package scoring

import "ergocare-backend/models"

// Thresholds control how domain indices are banded
type Thresholds struct {
	// Default is the High cutoff for any domain without its own entry
	Default float64                   `yaml:"default" json:"default"`
	Band    float64                   `yaml:"band" json:"band"`
	Cutoffs map[models.Domain]float64 `yaml:"cutoffs,omitempty" json:"cutoffs,omitempty"`
}

// DefaultThresholds returns the standard 65/15 banding
func DefaultThresholds() Thresholds {
	return Thresholds{Default: 65, Band: 15}
}

// CutoffFor returns the High cutoff for a domain
func (t Thresholds) CutoffFor(d models.Domain) float64 {
	if c, ok := t.Cutoffs[d]; ok {
		return c
	}
	return t.Default
}

// Level bands a single domain value
func (t Thresholds) Level(d models.Domain, value float64) models.RiskLevel {
	cutoff := t.CutoffFor(d)
	switch {
	case value >= cutoff:
		return models.RiskHigh
	case value >= cutoff-t.Band:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// ConfidenceTier pairs a minimum class probability with its label
type ConfidenceTier struct {
	Min   float64
	Label string
}

// ConfidenceTiers are checked in order; the first satisfied tier wins
var ConfidenceTiers = []ConfidenceTier{
	{0.85, "Very High"},
	{0.65, "High"},
	{0.45, "Moderate"},
	{0, "Low"},
}

// ConfidenceLabel returns the tier for a max class probability
func ConfidenceLabel(score float64) string {
	for _, tier := range ConfidenceTiers {
		if score >= tier.Min {
			return tier.Label
		}
	}
	return "Low"
}

// Interpreter converts classifier output and indices into a risk profile
type Interpreter struct {
	Thresholds Thresholds
}

// NewInterpreter creates an interpreter with the given thresholds
func NewInterpreter(t Thresholds) *Interpreter {
	return &Interpreter{Thresholds: t}
}

// Interpret bands each domain and picks the primary driver. The aggregate
// index never participates in the driver selection.
func (in *Interpreter) Interpret(c models.ClassificationResult, idx models.RiskIndices) models.RiskInterpretation {
	label, ok := models.RiskLevelForLabel(c.Label)
	if !ok {
		label, _ = models.RiskLevelForLabel(argmax(c.Probabilities))
	}
	score := c.Confidence()

	out := models.RiskInterpretation{
		RiskLabel:       label,
		Confidence:      ConfidenceLabel(score),
		ConfidenceScore: score,
		HighDomains:     []models.Domain{},
		ModerateDomains: []models.Domain{},
		Probabilities:   c.Probabilities,
	}

	best := -1.0
	for _, d := range models.DomainOrder {
		v := idx.Domain(d)
		if v > best {
			best = v
			out.PrimaryDriver = d
		}
		switch in.Thresholds.Level(d, v) {
		case models.RiskHigh:
			out.HighDomains = append(out.HighDomains, d)
		case models.RiskModerate:
			out.ModerateDomains = append(out.ModerateDomains, d)
		}
	}
	return out
}

func argmax(p [3]float64) int {
	best := 0
	for i := 1; i < len(p); i++ {
		if p[i] > p[best] {
			best = i
		}
	}
	return best
}

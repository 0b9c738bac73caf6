package classifier

import (
	"context"
	"fmt"
	"math"

	"ergocare-backend/scoring"
)

// Cut points of the labelling rule the risk model was trained on
const (
	ModerateCut = 45.0
	HighCut     = 65.0
)

// RuleModel applies the training labelling rule directly. It rebuilds the
// aggregate index from the five inputs and spreads probability mass with
// an ordinal logistic around the two cut points.
type RuleModel struct {
	weights scoring.OverallWeights
	spread  float64
}

// NewRuleModel creates a rule model using the given aggregate weights
func NewRuleModel(w scoring.OverallWeights) *RuleModel {
	return &RuleModel{weights: w, spread: 5}
}

func (r *RuleModel) Features() []string {
	return DefaultFeatureOrder
}

func (r *RuleModel) Predict(_ context.Context, features []float64) (int, [3]float64, error) {
	var probs [3]float64
	if len(features) != len(DefaultFeatureOrder) {
		return 0, probs, fmt.Errorf("expected %d features, got %d", len(DefaultFeatureOrder), len(features))
	}

	w := r.weights
	overall := w.Posture*features[0] + w.Visual*features[1] + w.Cognitive*features[2] +
		w.MSK*features[3] + w.Lifestyle*features[4]
	overall = math.Max(0, math.Min(100, overall))

	aboveModerate := sigmoid((overall - ModerateCut) / r.spread)
	aboveHigh := sigmoid((overall - HighCut) / r.spread)
	probs[0] = 1 - aboveModerate
	probs[1] = aboveModerate - aboveHigh
	probs[2] = aboveHigh

	label := 0
	switch {
	case overall >= HighCut:
		label = 2
	case overall >= ModerateCut:
		label = 1
	}
	return label, probs, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

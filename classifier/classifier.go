// Package classifier adapts a pretrained risk model to the scoring pipeline.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"ergocare-backend/models"
	"ergocare-backend/scoring"
)

var (
	ErrModelUnavailable = errors.New("classification model unavailable")
	ErrInvalidOutput    = errors.New("classification model returned invalid output")
)

// DefaultFeatureOrder is the training column order of the risk model
var DefaultFeatureOrder = []string{
	"posture_risk_index",
	"visual_strain_index",
	"cognitive_load_index",
	"msk_risk_index",
	"lifestyle_risk_index",
}

// Model is a loaded multi-class risk model
type Model interface {
	// Features lists the input columns in the order Predict expects
	Features() []string
	Predict(ctx context.Context, features []float64) (int, [3]float64, error)
}

// ArtifactSource fetches a model artifact by path
type ArtifactSource interface {
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}

// Model types accepted by Load
const (
	TypeXGBoost = "xgboost"
	TypeRules   = "rules"
)

// Options select and locate the model
type Options struct {
	Type      string
	ModelPath string
	Timeout   time.Duration
}

// Load builds the configured model once at startup. Every failure wraps
// ErrModelUnavailable.
func Load(ctx context.Context, src ArtifactSource, opts Options) (Model, error) {
	switch opts.Type {
	case TypeRules:
		log.Println("Using rule-based risk model")
		return NewRuleModel(scoring.DefaultWeights().Overall), nil
	case TypeXGBoost, "":
	default:
		return nil, fmt.Errorf("%w: unknown model type %q", ErrModelUnavailable, opts.Type)
	}

	if src == nil {
		return nil, fmt.Errorf("%w: no artifact source configured", ErrModelUnavailable)
	}
	if opts.ModelPath == "" {
		return nil, fmt.Errorf("%w: model path not set", ErrModelUnavailable)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rc, err := src.Download(ctx, opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read artifact: %v", ErrModelUnavailable, err)
	}

	model, err := ParseXGBoostJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	log.Printf("Loaded XGBoost model from %s (%d trees)", opts.ModelPath, model.NumTrees())
	return model, nil
}

// Adapter marshals risk indices into model input and validates the output
type Adapter struct {
	model Model
}

// NewAdapter wraps a loaded model
func NewAdapter(model Model) *Adapter {
	return &Adapter{model: model}
}

// Predict classifies the five domain indices. The aggregate index is
// never passed to the model.
func (a *Adapter) Predict(ctx context.Context, idx models.RiskIndices) (models.ClassificationResult, error) {
	if a.model == nil {
		return models.ClassificationResult{}, ErrModelUnavailable
	}

	names := a.model.Features()
	if len(names) == 0 {
		names = DefaultFeatureOrder
	}
	input := make([]float64, len(names))
	for i, name := range names {
		v, ok := idx.FeatureByName(name)
		if !ok {
			return models.ClassificationResult{}, fmt.Errorf("%w: unsupported feature %q", ErrInvalidOutput, name)
		}
		input[i] = v
	}

	label, probs, err := a.model.Predict(ctx, input)
	if err != nil {
		return models.ClassificationResult{}, fmt.Errorf("model prediction failed: %w", err)
	}
	if _, ok := models.RiskLevelForLabel(label); !ok {
		return models.ClassificationResult{}, fmt.Errorf("%w: label %d", ErrInvalidOutput, label)
	}

	var sum float64
	for _, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return models.ClassificationResult{}, fmt.Errorf("%w: probability %v", ErrInvalidOutput, p)
		}
		sum += p
	}
	if sum <= 0 {
		return models.ClassificationResult{}, fmt.Errorf("%w: empty probability simplex", ErrInvalidOutput)
	}
	for i := range probs {
		probs[i] /= sum
	}

	return models.ClassificationResult{Label: label, Probabilities: probs}, nil
}

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// XGBoostModel evaluates a multi:softprob tree ensemble saved with
// save_model(".json"). It is immutable after parsing.
type XGBoostModel struct {
	features  []string
	numClass  int
	baseScore []float64
	trees     []xgbTree
	treeClass []int
}

type xgbTree struct {
	left      []int
	right     []int
	splitIdx  []int
	splitCond []float32
	defLeft   []bool
}

type xgbDocument struct {
	Learner struct {
		FeatureNames      []string `json:"feature_names"`
		LearnerModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				TreeInfo []int `json:"tree_info"`
				Trees    []struct {
					LeftChildren    []int      `json:"left_children"`
					RightChildren   []int      `json:"right_children"`
					SplitIndices    []int      `json:"split_indices"`
					SplitConditions []float64  `json:"split_conditions"`
					DefaultLeft     []flexBool `json:"default_left"`
					SplitType       []int      `json:"split_type"`
				} `json:"trees"`
			} `json:"model"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

// flexBool accepts both JSON booleans and 0/1 integers
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
	case "false", "0":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %s", data)
	}
	return nil
}

// ParseXGBoostJSON parses and validates a saved model
func ParseXGBoostJSON(data []byte) (*XGBoostModel, error) {
	var doc xgbDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	l := doc.Learner

	if l.Objective.Name != "" && l.Objective.Name != "multi:softprob" && l.Objective.Name != "multi:softmax" {
		return nil, fmt.Errorf("unsupported objective %q", l.Objective.Name)
	}
	if l.GradientBooster.Name != "" && l.GradientBooster.Name != "gbtree" {
		return nil, fmt.Errorf("unsupported booster %q", l.GradientBooster.Name)
	}

	numClass, err := strconv.Atoi(l.LearnerModelParam.NumClass)
	if err != nil || numClass != 3 {
		return nil, fmt.Errorf("expected 3 classes, got %q", l.LearnerModelParam.NumClass)
	}

	features := l.FeatureNames
	if len(features) == 0 {
		features = DefaultFeatureOrder
	}
	if nf := l.LearnerModelParam.NumFeature; nf != "" {
		n, err := strconv.Atoi(nf)
		if err != nil || n != len(features) {
			return nil, fmt.Errorf("num_feature %q does not match %d feature names", nf, len(features))
		}
	}

	base, err := parseBaseScore(l.LearnerModelParam.BaseScore, numClass)
	if err != nil {
		return nil, err
	}

	m := &XGBoostModel{
		features:  append([]string(nil), features...),
		numClass:  numClass,
		baseScore: base,
	}

	raw := l.GradientBooster.Model
	if len(raw.Trees) == 0 {
		return nil, errors.New("model has no trees")
	}
	if len(raw.TreeInfo) != len(raw.Trees) {
		return nil, fmt.Errorf("tree_info has %d entries for %d trees", len(raw.TreeInfo), len(raw.Trees))
	}

	for i, t := range raw.Trees {
		n := len(t.LeftChildren)
		if n == 0 || len(t.RightChildren) != n || len(t.SplitIndices) != n ||
			len(t.SplitConditions) != n || len(t.DefaultLeft) != n {
			return nil, fmt.Errorf("tree %d has inconsistent node arrays", i)
		}
		for _, st := range t.SplitType {
			if st != 0 {
				return nil, fmt.Errorf("tree %d uses categorical splits", i)
			}
		}
		cls := raw.TreeInfo[i]
		if cls < 0 || cls >= numClass {
			return nil, fmt.Errorf("tree %d assigned to class %d", i, cls)
		}

		tree := xgbTree{
			left:      t.LeftChildren,
			right:     t.RightChildren,
			splitIdx:  t.SplitIndices,
			splitCond: make([]float32, n),
			defLeft:   make([]bool, n),
		}
		for j := 0; j < n; j++ {
			tree.splitCond[j] = float32(t.SplitConditions[j])
			tree.defLeft[j] = bool(t.DefaultLeft[j])
			if tree.left[j] == -1 {
				continue
			}
			if tree.left[j] <= j || tree.left[j] >= n || tree.right[j] <= j || tree.right[j] >= n {
				return nil, fmt.Errorf("tree %d node %d has invalid children", i, j)
			}
			if tree.splitIdx[j] < 0 || tree.splitIdx[j] >= len(features) {
				return nil, fmt.Errorf("tree %d node %d splits on feature %d", i, j, tree.splitIdx[j])
			}
		}
		m.trees = append(m.trees, tree)
		m.treeClass = append(m.treeClass, cls)
	}
	return m, nil
}

// parseBaseScore accepts "5E-1" as well as the bracketed vector form
func parseBaseScore(s string, numClass int) ([]float64, error) {
	out := make([]float64, numClass)
	s = strings.TrimSpace(s)
	if s == "" {
		for i := range out {
			out[i] = 0.5
		}
		return out, nil
	}
	if strings.HasPrefix(s, "[") {
		parts := strings.Split(strings.Trim(s, "[]"), ",")
		if len(parts) != numClass {
			return nil, fmt.Errorf("base_score has %d entries, want %d", len(parts), numClass)
		}
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid base_score %q", s)
			}
			out[i] = v
		}
		return out, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid base_score %q", s)
	}
	for i := range out {
		out[i] = v
	}
	return out, nil
}

func (m *XGBoostModel) Features() []string {
	return m.features
}

// NumTrees returns the number of boosted trees across all classes
func (m *XGBoostModel) NumTrees() int {
	return len(m.trees)
}

// Predict sums per-class leaf values and applies softmax
func (m *XGBoostModel) Predict(_ context.Context, features []float64) (int, [3]float64, error) {
	var probs [3]float64
	if len(features) != len(m.features) {
		return 0, probs, fmt.Errorf("expected %d features, got %d", len(m.features), len(features))
	}

	margins := make([]float64, m.numClass)
	copy(margins, m.baseScore)
	for i, t := range m.trees {
		margins[m.treeClass[i]] += float64(t.leaf(features))
	}

	maxMargin := margins[0]
	for _, v := range margins[1:] {
		maxMargin = math.Max(maxMargin, v)
	}
	var sum float64
	for i, v := range margins {
		probs[i] = math.Exp(v - maxMargin)
		sum += probs[i]
	}
	label := 0
	for i := range probs {
		probs[i] /= sum
		if probs[i] > probs[label] {
			label = i
		}
	}
	return label, probs, nil
}

// leaf walks one tree; values are compared in float32 as XGBoost does
func (t xgbTree) leaf(features []float64) float32 {
	node := 0
	for t.left[node] != -1 {
		x := features[t.splitIdx[node]]
		switch {
		case math.IsNaN(x):
			if t.defLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case float32(x) < t.splitCond[node]:
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return t.splitCond[node]
}

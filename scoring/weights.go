package scoring

import (
	"fmt"
	"math"
)

// weightTolerance is how far a weight table may drift from 1.0
const weightTolerance = 1e-9

type PostureWeights struct {
	Sitting   float64 `yaml:"sitting" json:"sitting"`
	Workspace float64 `yaml:"workspace" json:"workspace"`
	Screen    float64 `yaml:"screen" json:"screen"`
	Feet      float64 `yaml:"feet" json:"feet"`
	NeckBack  float64 `yaml:"neck_back" json:"neck_back"`
}

func (w PostureWeights) Sum() float64 {
	return w.Sitting + w.Workspace + w.Screen + w.Feet + w.NeckBack
}

type VisualWeights struct {
	Eye     float64 `yaml:"eye" json:"eye"`
	Screen  float64 `yaml:"screen" json:"screen"`
	Sitting float64 `yaml:"sitting" json:"sitting"`
}

func (w VisualWeights) Sum() float64 {
	return w.Eye + w.Screen + w.Sitting
}

type CognitiveWeights struct {
	Workload         float64 `yaml:"workload" json:"workload"`
	Weekend          float64 `yaml:"weekend" json:"weekend"`
	Overload         float64 `yaml:"overload" json:"overload"`
	Publish          float64 `yaml:"publish" json:"publish"`
	WellbeingDeficit float64 `yaml:"wellbeing_deficit" json:"wellbeing_deficit"`
}

func (w CognitiveWeights) Sum() float64 {
	return w.Workload + w.Weekend + w.Overload + w.Publish + w.WellbeingDeficit
}

type MSKWeights struct {
	Pain     float64 `yaml:"pain" json:"pain"`
	Activity float64 `yaml:"activity" json:"activity"`
}

func (w MSKWeights) Sum() float64 {
	return w.Pain + w.Activity
}

type LifestyleWeights struct {
	SleepDeficit     float64 `yaml:"sleep_deficit" json:"sleep_deficit"`
	HydrationDeficit float64 `yaml:"hydration_deficit" json:"hydration_deficit"`
	ActivityDeficit  float64 `yaml:"activity_deficit" json:"activity_deficit"`
	Commute          float64 `yaml:"commute" json:"commute"`
}

func (w LifestyleWeights) Sum() float64 {
	return w.SleepDeficit + w.HydrationDeficit + w.ActivityDeficit + w.Commute
}

// OverallWeights combine the five domain indices into the aggregate
type OverallWeights struct {
	Posture   float64 `yaml:"posture" json:"posture"`
	Cognitive float64 `yaml:"cognitive" json:"cognitive"`
	Visual    float64 `yaml:"visual" json:"visual"`
	MSK       float64 `yaml:"msk" json:"msk"`
	Lifestyle float64 `yaml:"lifestyle" json:"lifestyle"`
}

func (w OverallWeights) Sum() float64 {
	return w.Posture + w.Cognitive + w.Visual + w.MSK + w.Lifestyle
}

// Weights is the full weighting scheme for every composite index
type Weights struct {
	Posture   PostureWeights   `yaml:"posture" json:"posture"`
	Visual    VisualWeights    `yaml:"visual" json:"visual"`
	Cognitive CognitiveWeights `yaml:"cognitive" json:"cognitive"`
	MSK       MSKWeights       `yaml:"msk" json:"msk"`
	Lifestyle LifestyleWeights `yaml:"lifestyle" json:"lifestyle"`
	Overall   OverallWeights   `yaml:"overall" json:"overall"`
}

// DefaultWeights returns the published weighting scheme
func DefaultWeights() Weights {
	return Weights{
		Posture:   PostureWeights{Sitting: 0.25, Workspace: 0.25, Screen: 0.15, Feet: 0.10, NeckBack: 0.25},
		Visual:    VisualWeights{Eye: 0.40, Screen: 0.30, Sitting: 0.30},
		Cognitive: CognitiveWeights{Workload: 0.30, Weekend: 0.20, Overload: 0.20, Publish: 0.15, WellbeingDeficit: 0.15},
		MSK:       MSKWeights{Pain: 0.80, Activity: 0.20},
		Lifestyle: LifestyleWeights{SleepDeficit: 0.30, HydrationDeficit: 0.20, ActivityDeficit: 0.30, Commute: 0.20},
		Overall:   OverallWeights{Posture: 0.30, Cognitive: 0.25, Visual: 0.20, MSK: 0.20, Lifestyle: 0.05},
	}
}

// Validate checks that every table is a convex combination
func (w Weights) Validate() error {
	tables := []struct {
		name string
		sum  float64
	}{
		{"posture", w.Posture.Sum()},
		{"visual", w.Visual.Sum()},
		{"cognitive", w.Cognitive.Sum()},
		{"msk", w.MSK.Sum()},
		{"lifestyle", w.Lifestyle.Sum()},
		{"overall", w.Overall.Sum()},
	}
	for _, t := range tables {
		if math.Abs(t.sum-1.0) > weightTolerance {
			return fmt.Errorf("%s weights sum to %.12f, want 1.0", t.name, t.sum)
		}
	}
	return nil
}

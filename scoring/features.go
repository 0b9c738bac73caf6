package scoring

import "ergocare-backend/models"

// Normalisation bounds for the encoded sub-signals
const (
	MaxWorkloadHours = 50.0
	maxWHO5Total     = 25.0
	maxPain          = 5.0
)

// Builder computes composite indices from an encoded response
type Builder struct {
	Weights Weights
}

// NewBuilder creates a builder with the given weights
func NewBuilder(w Weights) *Builder {
	return &Builder{Weights: w}
}

// BuildIndices computes the five domain indices and the aggregate
func (b *Builder) BuildIndices(e models.EncodedResponse) models.RiskIndices {
	w := b.Weights

	sitting := float64(e.SittingDuration) / 3.0
	workspace := float64(e.WorkspaceSetup) / 4.0
	screen := float64(e.ScreenPosition) / 2.0
	feet := float64(e.FeetSupport) / 3.0
	neckBack := float64(e.NeckPain+e.LowerBackPain) / (2 * maxPain)

	posture := w.Posture.Sitting*sitting +
		w.Posture.Workspace*workspace +
		w.Posture.Screen*screen +
		w.Posture.Feet*feet +
		w.Posture.NeckBack*neckBack

	eye := float64(e.EyeStrain) / maxPain
	visual := w.Visual.Eye*eye +
		w.Visual.Screen*screen +
		w.Visual.Sitting*sitting

	workload := clamp01(float64(e.TeachingHours+e.AdminHours) / MaxWorkloadHours)
	weekend := float64(e.WeekendWork) / 4.0
	overload := float64(e.RoleOverload-1) / 4.0
	publish := float64(e.PublishPressure) / 2.0
	wellbeing := float64(e.WHO5Total()) / maxWHO5Total
	cognitive := w.Cognitive.Workload*workload +
		w.Cognitive.Weekend*weekend +
		w.Cognitive.Overload*overload +
		w.Cognitive.Publish*publish +
		w.Cognitive.WellbeingDeficit*(1.0-wellbeing)

	painAvg := float64(e.NeckPain+e.LowerBackPain+e.WristPain+e.ShoulderPain+e.LegPain) / 5.0 / maxPain
	activity := float64(e.DiscomfortActivity) / 2.0
	msk := w.MSK.Pain*painAvg + w.MSK.Activity*activity

	sleep := float64(e.SleepHours) / 3.0
	hydration := float64(e.Hydration) / 2.0
	exercise := float64(e.PhysicalActivity) / 3.0
	commute := float64(e.CommuteTime) / 3.0
	lifestyle := w.Lifestyle.SleepDeficit*(1.0-sleep) +
		w.Lifestyle.HydrationDeficit*(1.0-hydration) +
		w.Lifestyle.ActivityDeficit*(1.0-exercise) +
		w.Lifestyle.Commute*commute

	idx := models.RiskIndices{
		Posture:       scale100(posture),
		VisualStrain:  scale100(visual),
		CognitiveLoad: scale100(cognitive),
		MSK:           scale100(msk),
		Lifestyle:     scale100(lifestyle),
	}
	idx.Overall = b.Overall(idx)
	return idx
}

// Overall combines already clamped domain indices into the aggregate index
func (b *Builder) Overall(idx models.RiskIndices) float64 {
	w := b.Weights.Overall
	overall := w.Posture*idx.Posture/100.0 +
		w.Cognitive*idx.CognitiveLoad/100.0 +
		w.Visual*idx.VisualStrain/100.0 +
		w.MSK*idx.MSK/100.0 +
		w.Lifestyle*idx.Lifestyle/100.0
	return scale100(overall)
}

func clamp01(x float64) float64 {
	if x != x || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func scale100(x float64) float64 {
	return clamp01(x) * 100.0
}

package scoring

import "ergocare-backend/models"

const (
	// DiscomfortPainLevel is the pain score from which a symptom counts as reported
	DiscomfortPainLevel = 4
	// PoorWellbeingCutoff is the WHO-5 raw total below which stress is flagged
	PoorWellbeingCutoff = 13
)

// DeriveSymptomFlags reads qualitative symptoms off the encoded answers
func DeriveSymptomFlags(e models.EncodedResponse) models.SymptomFlags {
	return models.SymptomFlags{
		NeckDiscomfort: e.NeckPain >= DiscomfortPainLevel || e.LowerBackPain >= DiscomfortPainLevel,
		EyeStrain:      e.EyeStrain >= DiscomfortPainLevel,
		ElevatedStress: e.WHO5Total() < PoorWellbeingCutoff,
	}
}

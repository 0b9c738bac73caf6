package service

import (
	"fmt"
	"strings"

	"ergocare-backend/models"
)

// PolicyQuery is the fixed retrieval query for the policy partition
const PolicyQuery = "Retrieve disclaimer and safety policy for ergonomic recommendations."

var domainDirectives = map[models.RetrievalDomain]string{
	models.RetrievalPosture:   "Retrieve best evidence-based posture and sitting recommendations.",
	models.RetrievalVision:    "Retrieve best evidence-based screen/vision ergonomics recommendations.",
	models.RetrievalCognitive: "Retrieve best evidence-based cognitive load and stress ergonomics recommendations.",
	models.RetrievalGeneral:   "Retrieve relevant ergonomic guidance on musculoskeletal pain, activity, sleep and hydration.",
}

// BuildQueries returns one retrieval query per selected partition
func BuildQueries(interp models.RiskInterpretation, flags models.SymptomFlags, domains []models.RetrievalDomain) map[models.RetrievalDomain]string {
	profile := profileBlock(interp, flags)
	queries := make(map[models.RetrievalDomain]string, len(domains))
	for _, d := range domains {
		if d == models.RetrievalPolicy {
			queries[d] = PolicyQuery
			continue
		}
		directive, ok := domainDirectives[d]
		if !ok {
			directive = "Retrieve relevant ergonomic guidance."
		}
		queries[d] = profile + "\n" + directive
	}
	return queries
}

func profileBlock(interp models.RiskInterpretation, flags models.SymptomFlags) string {
	var b strings.Builder
	b.WriteString("User profile ergonomic signals:\n")
	fmt.Fprintf(&b, "- overall_risk: %s\n", interp.RiskLabel)
	fmt.Fprintf(&b, "- posture_risk: %s\n", interp.LevelFor(models.DomainPosture))
	fmt.Fprintf(&b, "- vision_risk: %s\n", interp.LevelFor(models.DomainVisual))
	fmt.Fprintf(&b, "- cognitive_risk: %s\n", interp.LevelFor(models.DomainCognitive))
	fmt.Fprintf(&b, "- musculoskeletal_risk: %s\n", interp.LevelFor(models.DomainMSK))
	fmt.Fprintf(&b, "- lifestyle_risk: %s\n", interp.LevelFor(models.DomainLifestyle))
	fmt.Fprintf(&b, "- primary_driver: %s\n", interp.PrimaryDriver)
	fmt.Fprintf(&b, "- neck_discomfort: %s\n", yesNo(flags.NeckDiscomfort))
	fmt.Fprintf(&b, "- eye_strain: %s\n", yesNo(flags.EyeStrain))
	fmt.Fprintf(&b, "- stress: %s\n", yesNo(flags.ElevatedStress))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

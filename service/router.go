package service

import "ergocare-backend/models"

// ScoredDomainsFor lists the scored domains whose guidance lives in a
// knowledge-base partition. Policy has none.
func ScoredDomainsFor(d models.RetrievalDomain) []models.Domain {
	switch d {
	case models.RetrievalPosture:
		return []models.Domain{models.DomainPosture}
	case models.RetrievalVision:
		return []models.Domain{models.DomainVisual}
	case models.RetrievalCognitive:
		return []models.Domain{models.DomainCognitive}
	case models.RetrievalGeneral:
		return []models.Domain{models.DomainMSK, models.DomainLifestyle}
	default:
		return nil
	}
}

// SelectDomains picks the partitions to search. Policy always comes first.
// A domain is added when its index is Moderate or High, or when the matching
// symptom flag is set, so either signal alone triggers retrieval.
func SelectDomains(interp models.RiskInterpretation, flags models.SymptomFlags) []models.RetrievalDomain {
	domains := []models.RetrievalDomain{models.RetrievalPolicy}

	if interp.Elevated(models.DomainPosture) || flags.NeckDiscomfort {
		domains = append(domains, models.RetrievalPosture)
	}
	if interp.Elevated(models.DomainVisual) || flags.EyeStrain {
		domains = append(domains, models.RetrievalVision)
	}
	if interp.Elevated(models.DomainCognitive) || flags.ElevatedStress {
		domains = append(domains, models.RetrievalCognitive)
	}

	return domains
}

// WithGeneral appends the general partition when msk or lifestyle is
// elevated. It is only applied when ReportStrategy.IncludeGeneral is set.
func WithGeneral(domains []models.RetrievalDomain, interp models.RiskInterpretation) []models.RetrievalDomain {
	if !interp.Elevated(models.DomainMSK) && !interp.Elevated(models.DomainLifestyle) {
		return domains
	}
	for _, d := range domains {
		if d == models.RetrievalGeneral {
			return domains
		}
	}
	return append(domains, models.RetrievalGeneral)
}

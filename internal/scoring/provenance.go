package scoring

import "fmt"

// Per-factor weights for the provenance category.
const (
	weightSourceUnknown    = 1.5
	weightSourceMediumRisk = 1.0
	weightSourceLowRisk    = 0.5
	weightSourceNoContract = 1.2
	weightSourceNoLicense  = 1.0
)

// ProvenanceFactors converts image-origin information into risk factors. A
// missing provenance record is treated the same as an unknown source.
func ProvenanceFactors(src *Provenance) []RiskFactor {
	if src == nil {
		return []RiskFactor{{
			Name:        "Image source unknown",
			Category:    CategorySource,
			Severity:    SeverityRed,
			Weight:      weightSourceUnknown,
			Description: "No provenance was provided for the product image; usage rights cannot be confirmed.",
		}}
	}

	profile := sourceProfileFor(src.SourceType)
	var factors []RiskFactor
	switch profile.tier {
	case tierHigh:
		factors = append(factors, RiskFactor{
			Name:        "Image source unknown",
			Category:    CategorySource,
			Severity:    SeverityRed,
			Weight:      weightSourceUnknown,
			Description: "The image origin is unknown; usage rights cannot be confirmed.",
		})
	case tierMedium:
		factors = append(factors, RiskFactor{
			Name:        fmt.Sprintf("Image source: %s", profile.label),
			Category:    CategorySource,
			Severity:    SeverityYellow,
			Weight:      weightSourceMediumRisk,
			Description: fmt.Sprintf("Images from a %s source carry moderate risk; usage terms must be confirmed.", profile.label),
		})
	default:
		factors = append(factors, RiskFactor{
			Name:        fmt.Sprintf("Image source: %s", profile.label),
			Category:    CategorySource,
			Severity:    SeverityGreen,
			Weight:      weightSourceLowRisk,
			Description: fmt.Sprintf("The image comes from a low-risk source (%s).", profile.label),
		})
	}

	// Document checks apply from the medium tier up; a low-risk source is
	// trusted as-is.
	if profile.tier != tierLow {
		if profile.needsContract && !src.HasContract {
			factors = append(factors, RiskFactor{
				Name:        "No contract on file",
				Category:    CategorySource,
				Severity:    SeverityYellow,
				Weight:      weightSourceNoContract,
				Description: "No contract transferring exclusive rights to the artwork is on file.",
			})
		}
		if profile.needsLicense && !src.HasLicense {
			factors = append(factors, RiskFactor{
				Name:        "No license on file",
				Category:    CategorySource,
				Severity:    SeverityYellow,
				Weight:      weightSourceNoLicense,
				Description: "No license confirming commercial usage rights is on file.",
			})
		}
	}
	return factors
}

package scoring

import (
	"fmt"
	"strings"
)

// Per-factor weights for the copyright category.
const (
	weightCopyrightBrand      = 2.0
	weightCopyrightCharacter  = 2.0
	weightCopyrightKnownWork  = 1.8
	weightCopyrightPeople     = 1.0
	weightCopyrightUnverified = 0.8
)

// CopyrightFactors converts detector findings into risk factors. Findings are
// merged across sources; a product with no copyright analysis at all produces
// no factors, since the trademark and image checks already cover the
// designations involved.
func CopyrightFactors(results []CopyrightFinding) []RiskFactor {
	if len(results) == 0 {
		return nil
	}

	var factors []RiskFactor
	brands := newStringSet()
	characters := newStringSet()
	works := newStringSet()
	people := false
	unchecked := 0
	for _, res := range results {
		if !res.Checked {
			unchecked++
			continue
		}
		for _, b := range res.Brands {
			brands.add(b)
		}
		for _, c := range res.Characters {
			characters.add(c)
		}
		for _, w := range res.KnownWorks {
			works.add(w)
		}
		people = people || res.PeoplePhotos
	}

	if unchecked == len(results) {
		return []RiskFactor{{
			Name:        "Copyright check unavailable",
			Category:    CategoryCopyright,
			Severity:    SeverityYellow,
			Weight:      weightCopyrightUnverified,
			Description: "Third-party element detection did not run; the artwork could not be verified.",
		}}
	}

	if names := brands.values(); len(names) > 0 {
		factors = append(factors, RiskFactor{
			Name:        "Well-known brand elements detected",
			Category:    CategoryCopyright,
			Severity:    SeverityRed,
			Weight:      weightCopyrightBrand,
			Description: fmt.Sprintf("Detected references to protected brands: %s.", strings.Join(names, ", ")),
		})
	}
	if names := characters.values(); len(names) > 0 {
		factors = append(factors, RiskFactor{
			Name:        "Protected characters detected",
			Category:    CategoryCopyright,
			Severity:    SeverityRed,
			Weight:      weightCopyrightCharacter,
			Description: fmt.Sprintf("Detected fictional characters protected by copyright: %s.", strings.Join(names, ", ")),
		})
	}
	if names := works.values(); len(names) > 0 {
		factors = append(factors, RiskFactor{
			Name:        "Known works detected",
			Category:    CategoryCopyright,
			Severity:    SeverityRed,
			Weight:      weightCopyrightKnownWork,
			Description: fmt.Sprintf("The artwork appears to reproduce known works: %s.", strings.Join(names, ", ")),
		})
	}
	if people {
		factors = append(factors, RiskFactor{
			Name:        "Photos of people detected",
			Category:    CategoryCopyright,
			Severity:    SeverityYellow,
			Weight:      weightCopyrightPeople,
			Description: "The artwork contains photos of people; model releases may be required.",
		})
	}
	return factors
}

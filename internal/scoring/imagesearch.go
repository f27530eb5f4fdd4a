package scoring

import (
	"fmt"
	"strings"
)

// Per-factor weights for the reverse-image-search category.
const (
	weightImageExactCopies = 1.8
	weightImageAuthors     = 1.2
	weightImageWidespread  = 1.0
	weightImageFewHits     = 0.7
	weightImageUnchecked   = 0.7
	weightImageClean       = 0.3
)

// ImageSearchFactors converts reverse-image-search summaries into risk
// factors. Hit counts are summed across the sources that actually ran.
func ImageSearchFactors(results []ImageSearchSummary, p Policy) []RiskFactor {
	if len(results) == 0 {
		return []RiskFactor{{
			Name:        "Image search not performed",
			Category:    CategoryImageSearch,
			Severity:    SeverityYellow,
			Weight:      weightImageUnchecked,
			Description: "The product image was not checked against reverse image search.",
		}}
	}

	var factors []RiskFactor
	var total, exact, checked int
	authors := newStringSet()
	sources := newStringSet()
	for _, res := range results {
		if !res.Checked {
			factors = append(factors, RiskFactor{
				Name:        fmt.Sprintf("Image search unavailable (%s)", res.Source),
				Category:    CategoryImageSearch,
				Severity:    SeverityYellow,
				Weight:      weightImageUnchecked,
				Description: strings.TrimSpace(fmt.Sprintf("%s did not respond; the image could not be verified. %s", res.Source, res.Notes)),
			})
			continue
		}
		checked++
		total += res.TotalResults
		exact += res.ExactMatches
		for _, a := range res.PotentialAuthors {
			authors.add(a)
		}
		for _, s := range res.KnownSources {
			sources.add(s)
		}
	}
	if checked == 0 {
		return factors
	}

	switch {
	case exact > 0:
		factors = append(factors, RiskFactor{
			Name:        "Exact image copies found",
			Category:    CategoryImageSearch,
			Severity:    SeverityRed,
			Weight:      weightImageExactCopies,
			Description: exactCopiesDetail(exact, sources.values()),
		})
	case total > p.ImageHitLimit:
		factors = append(factors, RiskFactor{
			Name:        "Image widely distributed",
			Category:    CategoryImageSearch,
			Severity:    SeverityYellow,
			Weight:      weightImageWidespread,
			Description: fmt.Sprintf("Reverse search returned %d similar images; the artwork is unlikely to be unique.", total),
		})
	case total > 0:
		factors = append(factors, RiskFactor{
			Name:        "Similar images found",
			Category:    CategoryImageSearch,
			Severity:    SeverityYellow,
			Weight:      weightImageFewHits,
			Description: fmt.Sprintf("Reverse search returned %d similar image(s); review their sources.", total),
		})
	default:
		factors = append(factors, RiskFactor{
			Name:        "No image copies found",
			Category:    CategoryImageSearch,
			Severity:    SeverityGreen,
			Weight:      weightImageClean,
			Description: "Reverse image search found no copies of the product image.",
		})
	}

	if names := authors.values(); len(names) > 0 {
		if len(names) > 3 {
			names = names[:3]
		}
		factors = append(factors, RiskFactor{
			Name:        "Potential authors identified",
			Category:    CategoryImageSearch,
			Severity:    SeverityYellow,
			Weight:      weightImageAuthors,
			Description: fmt.Sprintf("The image may belong to: %s. Rights clearance is required.", strings.Join(names, ", ")),
		})
	}
	return factors
}

func exactCopiesDetail(count int, sources []string) string {
	if len(sources) == 0 {
		return fmt.Sprintf("Found %d exact cop(ies) of the product image on other sites.", count)
	}
	if len(sources) > 3 {
		sources = sources[:3]
	}
	return fmt.Sprintf("Found %d exact cop(ies) of the product image, including on: %s.", count, strings.Join(sources, ", "))
}

package scoring

import (
	"fmt"
	"strings"

	"mark-risk-eval/internal/match"
)

// Per-factor weights for the text-on-image category.
const (
	weightTextPresent = 0.8
	weightLogoPresent = 1.0
)

// TextOnImageFactors flags text and logos visible on the product itself.
// Declared text and OCR-recognized text are merged; any visible text is a
// potential unregistered designation and always rates at least yellow.
func TextOnImageFactors(declared []string, recognized []TextOnImage, logos []string) []RiskFactor {
	texts := newStringSet()
	for _, t := range declared {
		if match.Normalize(t) != "" {
			texts.add(strings.TrimSpace(t))
		}
	}
	for _, r := range recognized {
		if match.Normalize(r.Text) != "" {
			texts.add(strings.TrimSpace(r.Text))
		}
	}

	var factors []RiskFactor
	if names := texts.values(); len(names) > 0 {
		shown := names
		if len(shown) > 3 {
			shown = shown[:3]
		}
		factors = append(factors, RiskFactor{
			Name:        "Text present on the product",
			Category:    CategoryTextOnImage,
			Severity:    SeverityYellow,
			Weight:      weightTextPresent,
			Description: fmt.Sprintf("The product carries text (%s); it should be checked as a designation.", strings.Join(shown, ", ")),
		})
	}
	if len(logos) > 0 {
		shown := logos
		if len(shown) > 3 {
			shown = shown[:3]
		}
		factors = append(factors, RiskFactor{
			Name:        "Logos present on the product",
			Category:    CategoryTextOnImage,
			Severity:    SeverityYellow,
			Weight:      weightLogoPresent,
			Description: fmt.Sprintf("The product carries logo artwork (%s); ownership must be confirmed.", strings.Join(shown, ", ")),
		})
	}
	return factors
}

package scoring

import "fmt"

type statusCategory struct {
	severity Severity
	category Category
}

// recommendationTemplates maps each (severity, category) pair that warrants
// advice to a fixed recommendation line.
var recommendationTemplates = map[statusCategory]string{
	{SeverityRed, CategoryTrademark}:      "Consult legal counsel or choose an alternative designation.",
	{SeverityRed, CategoryCopyright}:      "Obtain the rights holder's permission or replace the artwork with an original.",
	{SeverityRed, CategorySource}:         "Request documents confirming usage rights for the image.",
	{SeverityRed, CategoryImageSearch}:    "Identify the original source of the exact image copies before use.",
	{SeverityYellow, CategoryTrademark}:   "Run a manual search against the trademark registries.",
	{SeverityYellow, CategoryCopyright}:   "Verify licensing for the detected third-party elements.",
	{SeverityYellow, CategorySource}:      "Request usage-rights documentation from the supplier.",
	{SeverityYellow, CategoryImageSearch}: "Review the sources of the similar images found.",
	{SeverityYellow, CategoryTextOnImage}: "Check the text and logos on the product against the trademark registries.",
}

// manualCheckTemplates maps categories to the manual follow-up each red or
// yellow factor calls for.
var manualCheckTemplates = map[Category]string{
	CategoryTrademark:   "Trademark registry search (Rospatent, WIPO Global Brand Database)",
	CategoryCopyright:   "Copyright and licensing review of the detected elements",
	CategorySource:      "Collect usage-rights documents from the image supplier",
	CategoryImageSearch: "Manual reverse image search across additional engines",
	CategoryTextOnImage: "Verify the on-product text and logos as designations",
}

func statusLabel(s Severity) string {
	switch s {
	case SeverityRed:
		return "PROHIBITED"
	case SeverityYellow:
		return "ATTENTION"
	default:
		return "CLEARED"
	}
}

// Summarize builds the one-line human verdict.
func Summarize(status Severity, score float64, factors []RiskFactor) string {
	red, yellow := 0, 0
	for _, f := range factors {
		switch f.Severity {
		case SeverityRed:
			red++
		case SeverityYellow:
			yellow++
		}
	}
	switch status {
	case SeverityRed:
		return fmt.Sprintf("%s: high risk of third-party claims (score %.0f, %d critical factor(s)).", statusLabel(status), score, red)
	case SeverityYellow:
		return fmt.Sprintf("%s: additional review required before use (score %.0f, %d factor(s) need attention).", statusLabel(status), score, yellow)
	default:
		return fmt.Sprintf("%s: automated checks found no obvious risks (score %.0f).", statusLabel(status), score)
	}
}

// Recommend produces the deduplicated advice list: a status banner first,
// then one templated line per distinct (severity, category) pair among the
// factors, in factor order.
func Recommend(status Severity, factors []RiskFactor) []string {
	recs := newStringSet()
	switch status {
	case SeverityRed:
		recs.add("PROHIBITED: using this designation or image is not recommended due to a high risk of third-party claims.")
	case SeverityYellow:
		recs.add("ATTENTION: additional verification is required before use.")
	default:
		recs.add("CLEARED: no obvious risks found. Keep the supporting documents on file.")
	}
	for _, f := range factors {
		if line, ok := recommendationTemplates[statusCategory{f.Severity, f.Category}]; ok {
			recs.add(line)
		}
	}
	return recs.values()
}

// ManualChecks lists the manual follow-ups implied by red and yellow factors.
func ManualChecks(factors []RiskFactor) []string {
	items := newStringSet()
	for _, f := range factors {
		if f.Severity == SeverityGreen {
			continue
		}
		if line, ok := manualCheckTemplates[f.Category]; ok {
			items.add(line)
		}
	}
	return items.values()
}

package scoring

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Evaluator runs the full per-product risk pipeline: extract factors from
// every check category, aggregate them into a weighted score, classify, and
// render the human-facing verdict.
type Evaluator struct {
	policy   Policy
	detector *BrandDetector
	log      *logrus.Logger
}

// NewEvaluator validates the policy up front; a bad policy is a startup
// error, never a per-product one. The detector is optional: without it,
// copyright findings must arrive pre-computed on the product.
func NewEvaluator(policy Policy, detector *BrandDetector, log *logrus.Logger) (*Evaluator, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring policy: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Evaluator{policy: policy, detector: detector, log: log}, nil
}

// Policy returns the evaluator's validated policy.
func (e *Evaluator) Policy() Policy {
	return e.policy
}

// Evaluate produces the risk assessment for one product. Factor extraction
// order is fixed (source, trademark, image search, copyright, text on image)
// so reports are stable across runs.
func (e *Evaluator) Evaluate(product Product) RiskAssessment {
	copyrightResults := product.CopyrightResults
	if len(copyrightResults) == 0 && e.detector != nil {
		copyrightResults = []CopyrightFinding{e.detectFromProduct(product)}
	}

	var factors []RiskFactor
	factors = append(factors, ProvenanceFactors(product.Source)...)
	factors = append(factors, TrademarkFactors(product.TrademarkResults, e.policy)...)
	factors = append(factors, ImageSearchFactors(product.ImageSearchResults, e.policy)...)
	factors = append(factors, CopyrightFactors(copyrightResults)...)
	factors = append(factors, TextOnImageFactors(product.TextOnProduct, product.RecognizedTexts, product.LogosOnProduct)...)

	score := Aggregate(factors, e.policy)
	status := Classify(score, e.policy)
	if status == SeverityGreen && !hasGreenFactor(factors) {
		// A low score built purely from the absence of evidence is not a
		// clearance: at least one check must have explicitly passed.
		status = SeverityYellow
	}

	assessment := RiskAssessment{
		OverallStatus:       status,
		OverallScore:        score,
		Factors:             factors,
		Summary:             Summarize(status, score, factors),
		Recommendations:     Recommend(status, factors),
		ManualCheckItems:    ManualChecks(factors),
		RequiresManualCheck: status != SeverityGreen,
	}

	e.log.WithFields(logrus.Fields{
		"article": product.Article,
		"name":    product.Name,
		"status":  status.String(),
		"score":   fmt.Sprintf("%.1f", score),
		"factors": len(factors),
	}).Debug("product evaluated")

	return assessment
}

func (e *Evaluator) detectFromProduct(product Product) CopyrightFinding {
	texts := make([]string, 0, 2+len(product.TextOnProduct)+len(product.RecognizedTexts)+len(product.LogosOnProduct))
	texts = append(texts, product.Name)
	texts = append(texts, product.TextOnProduct...)
	for _, r := range product.RecognizedTexts {
		texts = append(texts, r.Text)
	}
	texts = append(texts, product.LogosOnProduct...)
	return e.detector.Detect(texts...)
}

func hasGreenFactor(factors []RiskFactor) bool {
	for _, f := range factors {
		if f.Severity == SeverityGreen {
			return true
		}
	}
	return false
}

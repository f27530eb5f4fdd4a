package scoring

import (
	"fmt"
	"strings"

	"mark-risk-eval/internal/registry"
)

// Per-factor weights for the trademark category.
const (
	weightTrademarkExact     = 2.0
	weightTrademarkNearExact = 1.8
	weightTrademarkPartial   = 1.0
	weightTrademarkClean     = 0.3
	weightTrademarkUnchecked = 0.8
)

// TrademarkFactors converts registry check results into risk factors. An
// empty result set means the check never ran, which is itself a risk.
func TrademarkFactors(results []registry.CheckResult, p Policy) []RiskFactor {
	if len(results) == 0 {
		return []RiskFactor{{
			Name:        "Trademark check not performed",
			Category:    CategoryTrademark,
			Severity:    SeverityYellow,
			Weight:      weightTrademarkUnchecked,
			Description: "The designation was not checked against any trademark registry.",
		}}
	}

	factors := make([]RiskFactor, 0, len(results))
	for _, res := range results {
		factors = append(factors, trademarkFactor(res, p))
	}
	return factors
}

func trademarkFactor(res registry.CheckResult, p Policy) RiskFactor {
	source := res.Source
	if source == "" {
		source = "registry"
	}

	switch {
	case !res.Checked:
		return RiskFactor{
			Name:        fmt.Sprintf("Could not verify against %s", source),
			Category:    CategoryTrademark,
			Severity:    SeverityYellow,
			Weight:      weightTrademarkUnchecked,
			Description: strings.TrimSpace(fmt.Sprintf("%s was unavailable; the designation could not be verified. %s", source, res.Notes)),
		}
	case res.ExactMatch:
		return RiskFactor{
			Name:        fmt.Sprintf("Identical trademark registered (%s)", source),
			Category:    CategoryTrademark,
			Severity:    SeverityRed,
			Weight:      weightTrademarkExact,
			Description: trademarkDetail("An identical designation is already registered in the selected classes", res),
		}
	case res.SimilarMatch && res.SimilarityScore >= p.NearExact:
		return RiskFactor{
			Name:        fmt.Sprintf("Near-identical trademark found (%s)", source),
			Category:    CategoryTrademark,
			Severity:    SeverityRed,
			Weight:      weightTrademarkNearExact,
			Description: trademarkDetail(fmt.Sprintf("A confusingly similar designation (similarity %.2f) is registered in the selected classes", res.SimilarityScore), res),
		}
	case res.InScopeCount > 0:
		return RiskFactor{
			Name:        fmt.Sprintf("Similar trademarks found (%s)", source),
			Category:    CategoryTrademark,
			Severity:    SeverityYellow,
			Weight:      weightTrademarkPartial,
			Description: trademarkDetail(fmt.Sprintf("%d designation(s) in the selected classes require analysis", res.InScopeCount), res),
		}
	default:
		desc := fmt.Sprintf("No conflicting registrations found in %s.", source)
		if res.OutOfScopeCount > 0 {
			desc = fmt.Sprintf("No conflicts in the selected classes; %d hit(s) exist in other classes.", res.OutOfScopeCount)
		}
		return RiskFactor{
			Name:        fmt.Sprintf("Trademark check passed (%s)", source),
			Category:    CategoryTrademark,
			Severity:    SeverityGreen,
			Weight:      weightTrademarkClean,
			Description: desc,
		}
	}
}

func trademarkDetail(lead string, res registry.CheckResult) string {
	if len(res.RegistrationNumbers) == 0 {
		return lead + "."
	}
	nums := res.RegistrationNumbers
	if len(nums) > 3 {
		nums = nums[:3]
	}
	return fmt.Sprintf("%s (registrations: %s).", lead, strings.Join(nums, ", "))
}

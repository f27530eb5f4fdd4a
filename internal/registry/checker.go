package registry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"mark-risk-eval/internal/match"
)

// maxQueryVariants bounds how many transliteration variants of a designation
// are sent to a provider per check.
const maxQueryVariants = 3

// Provider returns raw candidate records for a designation query. A provider
// does no scoring; it only retrieves plausible records.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string) ([]match.Candidate, error)
}

// CheckResult is the per-source outcome of a designation check. Checked is
// false when the source could not be reached, which downstream scoring treats
// as its own risk rather than as a clean pass.
type CheckResult struct {
	Source              string            `json:"source"`
	Query               string            `json:"query"`
	Matches             []match.MatchInfo `json:"matches,omitempty"`
	ExactMatch          bool              `json:"exact_match"`
	SimilarMatch        bool              `json:"similar_match"`
	SimilarityScore     float64           `json:"similarity_score"`
	InScopeCount        int               `json:"in_scope_count"`
	OutOfScopeCount     int               `json:"out_of_scope_count"`
	RegistrationNumbers []string          `json:"registration_numbers,omitempty"`
	Classes             []int             `json:"classes,omitempty"`
	Checked             bool              `json:"checked"`
	Notes               string            `json:"notes,omitempty"`
}

// Checker runs a designation against one provider: it expands the query into
// transliteration variants, merges the provider's hits, and ranks them with
// the similarity scorer.
type Checker struct {
	provider Provider
	scorer   match.Scorer
	limit    int
	log      *logrus.Logger
}

// NewChecker wires a provider to a scorer. limit caps the ranked match list.
func NewChecker(provider Provider, scorer match.Scorer, limit int, log *logrus.Logger) *Checker {
	if limit <= 0 {
		limit = match.DefaultMaxMatches
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Checker{provider: provider, scorer: scorer, limit: limit, log: log}
}

// Check looks the designation up under each of its spelling variants and
// ranks the merged candidate set against the requested classes. A provider
// failure yields an unchecked result, never an error: one unreachable source
// must not sink the whole evaluation.
func (c *Checker) Check(ctx context.Context, query string, classes []int) CheckResult {
	result := CheckResult{
		Source:  c.provider.Name(),
		Query:   query,
		Classes: classes,
	}
	if match.Normalize(query) == "" {
		result.Notes = "empty designation, nothing to check"
		result.Checked = true
		return result
	}

	variants := match.Variants(query)
	if len(variants) > maxQueryVariants {
		variants = variants[:maxQueryVariants]
	}

	merged := make([]match.Candidate, 0, 32)
	seen := make(map[string]struct{})
	for _, variant := range variants {
		candidates, err := c.provider.Search(ctx, variant)
		if err != nil {
			c.log.WithError(err).WithFields(logrus.Fields{
				"source": c.provider.Name(),
				"query":  query,
			}).Warn("registry search failed")
			result.Checked = false
			result.Notes = fmt.Sprintf("%s is unavailable; the designation could not be verified", c.provider.Name())
			return result
		}
		for _, cand := range candidates {
			key := cand.Registration + "|" + match.NoSpaces(cand.Text)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, cand)
		}
	}

	ranked := c.scorer.Rank(query, merged, classes, c.limit)
	result.Checked = true
	result.Matches = ranked.InScope
	result.ExactMatch = ranked.ExactMatch
	result.SimilarMatch = ranked.SimilarMatch
	result.SimilarityScore = ranked.BestScore
	result.InScopeCount = ranked.InScopeCount
	result.OutOfScopeCount = ranked.OutOfScopeCount
	for _, m := range ranked.InScope {
		if m.Registration != "" {
			result.RegistrationNumbers = append(result.RegistrationNumbers, m.Registration)
		}
	}
	result.Notes = checkNotes(ranked)
	return result
}

func checkNotes(ranked match.RankResult) string {
	switch {
	case ranked.ExactMatch:
		return "an identical designation is registered in the selected classes"
	case ranked.SimilarMatch:
		return fmt.Sprintf("%d confusingly similar designation(s) found in the selected classes", ranked.InScopeCount)
	case ranked.InScopeCount > 0:
		return fmt.Sprintf("%d designation(s) found in the selected classes; analysis required", ranked.InScopeCount)
	case ranked.OutOfScopeCount > 0:
		return fmt.Sprintf("no hits in the selected classes (%d in other classes)", ranked.OutOfScopeCount)
	default:
		return "no registry hits"
	}
}

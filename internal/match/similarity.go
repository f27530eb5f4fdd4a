package match

import "strings"

// Reason identifies the rule that produced a similarity verdict.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonExact
	ReasonExactTransliterated
	ReasonContained
	ReasonPartialWord
	ReasonLevenshtein
	ReasonTransliteratedLevenshtein
)

func (r Reason) String() string {
	switch r {
	case ReasonExact:
		return "exact"
	case ReasonExactTransliterated:
		return "exact_transliterated"
	case ReasonContained:
		return "contained"
	case ReasonPartialWord:
		return "partial_word"
	case ReasonLevenshtein:
		return "levenshtein"
	case ReasonTransliteratedLevenshtein:
		return "transliterated_levenshtein"
	default:
		return "none"
	}
}

// Verdict is the outcome of comparing a query against a candidate
// designation. Matched is true exactly when Reason is not ReasonNone, and
// Score is 1.0 only for the exact reasons.
type Verdict struct {
	Matched bool    `json:"matched"`
	Score   float64 `json:"score"`
	Reason  Reason  `json:"-"`
}

const (
	// DefaultThreshold is the edit-distance similarity needed for a match.
	DefaultThreshold = 0.8
	// DefaultNearExact is the containment ratio treated as near-exact and the
	// boundary of the top similarity tier when ranking.
	DefaultNearExact = 0.9
	// DefaultPartialWordCap bounds the score of a single-word hit inside a
	// multi-word mark.
	DefaultPartialWordCap = 0.7
	// DefaultSimilarTier is the score boundary of the middle ranking tier:
	// hits at or above it sort ahead of weaker ones regardless of status.
	DefaultSimilarTier = 0.7
)

// Scorer compares designations. The zero value is unusable; construct with
// NewScorer and override fields as needed.
type Scorer struct {
	Threshold      float64
	NearExact      float64
	PartialWordCap float64
}

// NewScorer returns a scorer with the default policy constants.
func NewScorer() Scorer {
	return Scorer{
		Threshold:      DefaultThreshold,
		NearExact:      DefaultNearExact,
		PartialWordCap: DefaultPartialWordCap,
	}
}

// Score is a convenience wrapper using default constants with an explicit
// threshold.
func Score(query, candidate string, threshold float64) Verdict {
	s := NewScorer()
	s.Threshold = threshold
	return s.Score(query, candidate)
}

// Score compares query against candidate. Rules are evaluated in precedence
// order (exact, exact transliterated, containment, partial word, edit
// distance, cross-variant edit distance); the reported score is the maximum
// over all rules and the reason is the earliest rule that reached it. Whole
// containment always yields a match; otherwise a match requires the score to
// reach the threshold.
func (s Scorer) Score(query, candidate string) Verdict {
	nq := Normalize(query)
	nc := Normalize(candidate)
	if nq == "" || nc == "" {
		return Verdict{Reason: ReasonNone}
	}

	if nq == nc {
		return Verdict{Matched: true, Score: 1.0, Reason: ReasonExact}
	}

	queryVariants := normalizeAll(Variants(query))
	candidateVariants := normalizeAll(Variants(candidate))
	for _, qv := range queryVariants {
		for _, cv := range candidateVariants {
			if qv == cv {
				return Verdict{Matched: true, Score: 1.0, Reason: ReasonExactTransliterated}
			}
		}
	}

	best := 0.0
	reason := ReasonNone
	consider := func(score float64, r Reason) {
		if score > best {
			best = score
			reason = r
		}
	}

	contained := strings.Contains(nq, nc) || strings.Contains(nc, nq)
	if contained {
		consider(containmentRatio(nq, nc), ReasonContained)
	}

	// A single-word hit inside a multi-word mark is evidence of similarity,
	// not identity: discount by the length ratio, capped.
	if words := strings.Fields(nc); len(words) > 1 {
		queryLen := float64(len([]rune(nq)))
		markLen := float64(len([]rune(nc)))
		for _, word := range words {
			sim := levenshteinSimilarity(nq, word)
			if sim < s.NearExact {
				continue
			}
			partial := sim * queryLen / markLen
			if partial > s.PartialWordCap {
				partial = s.PartialWordCap
			}
			consider(partial, ReasonPartialWord)
		}
	}

	consider(levenshteinSimilarity(nq, nc), ReasonLevenshtein)

	cross := 0.0
	for _, qv := range queryVariants {
		for _, cv := range candidateVariants {
			if sim := levenshteinSimilarity(qv, cv); sim > cross {
				cross = sim
			}
		}
	}
	consider(cross, ReasonTransliteratedLevenshtein)

	if !contained && best < s.Threshold {
		return Verdict{Matched: false, Score: best, Reason: ReasonNone}
	}
	return Verdict{Matched: true, Score: best, Reason: reason}
}

func normalizeAll(variants []string) []string {
	out := make([]string, 0, len(variants))
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		n := Normalize(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func containmentRatio(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

func levenshteinSimilarity(a, b string) float64 {
	aRunes := []rune(a)
	bRunes := []rune(b)
	if len(aRunes) == 0 && len(bRunes) == 0 {
		return 1
	}
	if len(aRunes) == 0 || len(bRunes) == 0 {
		return 0
	}

	dist := levenshtein(aRunes, bRunes)
	maxLen := len(aRunes)
	if len(bRunes) > maxLen {
		maxLen = len(bRunes)
	}

	score := 1 - float64(dist)/float64(maxLen)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func levenshtein(a, b []rune) int {
	rows := len(a) + 1
	cols := len(b) + 1

	dp := make([]int, rows*cols)

	index := func(r, c int) int {
		return r*cols + c
	}

	for r := 0; r < rows; r++ {
		dp[index(r, 0)] = r
	}
	for c := 0; c < cols; c++ {
		dp[index(0, c)] = c
	}

	for r := 1; r < rows; r++ {
		for c := 1; c < cols; c++ {
			cost := 0
			if a[r-1] != b[c-1] {
				cost = 1
			}
			deletion := dp[index(r-1, c)] + 1
			insertion := dp[index(r, c-1)] + 1
			substitution := dp[index(r-1, c-1)] + cost
			dp[index(r, c)] = minInt(deletion, insertion, substitution)
		}
	}

	return dp[index(rows-1, cols-1)]
}

func minInt(values ...int) int {
	if len(values) == 0 {
		return 0
	}
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

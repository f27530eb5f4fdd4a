package match

import "testing"

func TestScoreExactSelf(t *testing.T) {
	for _, s := range []string{"Nike", "EXAMPLE BRAND", "Свинка Пеппа", "acme tools"} {
		verdict := Score(s, s, DefaultThreshold)
		if !verdict.Matched || verdict.Reason != ReasonExact || verdict.Score != 1.0 {
			t.Fatalf("self score for %q: %+v", s, verdict)
		}
	}
}

func TestScoreExactIgnoresCaseAndPunctuation(t *testing.T) {
	verdict := Score("Nike®", "NIKE", DefaultThreshold)
	if verdict.Reason != ReasonExact || verdict.Score != 1.0 {
		t.Fatalf("expected exact match, got %+v", verdict)
	}
}

func TestScoreExactRequiresWholeString(t *testing.T) {
	verdict := Score("NIKE", "NIKE PRO MAX", DefaultThreshold)
	if verdict.Reason == ReasonExact || verdict.Reason == ReasonExactTransliterated {
		t.Fatalf("single word inside composite mark must not be exact: %+v", verdict)
	}
	if !verdict.Matched {
		t.Fatalf("containment must still match: %+v", verdict)
	}
	if verdict.Score > DefaultPartialWordCap {
		t.Fatalf("composite-mark score must stay discounted, got %+v", verdict)
	}
}

func TestScoreTransliteratedBrandPairs(t *testing.T) {
	pairs := []struct {
		query     string
		candidate string
	}{
		{"Найк", "Nike"},
		{"Адидас", "Adidas"},
		{"Пума", "Puma"},
		{"Кока Кола", "Coca Cola"},
	}

	for _, tc := range pairs {
		t.Run(tc.query, func(t *testing.T) {
			verdict := Score(tc.query, tc.candidate, DefaultThreshold)
			if !verdict.Matched {
				t.Fatalf("expected %q to match %q, got %+v", tc.query, tc.candidate, verdict)
			}
			if verdict.Reason != ReasonExactTransliterated && verdict.Reason != ReasonTransliteratedLevenshtein {
				t.Fatalf("expected transliterated reason for %q vs %q, got %v", tc.query, tc.candidate, verdict.Reason)
			}
		})
	}
}

func TestScoreLevenshteinThreshold(t *testing.T) {
	// "brandx" vs "brandy": one substitution over six runes, similarity 5/6.
	matched := Score("brandx", "brandy", 0.8)
	if !matched.Matched || matched.Reason != ReasonLevenshtein {
		t.Fatalf("expected levenshtein match, got %+v", matched)
	}

	unmatched := Score("brandx", "brandy", 0.9)
	if unmatched.Matched || unmatched.Reason != ReasonNone {
		t.Fatalf("expected no match above threshold, got %+v", unmatched)
	}
	if unmatched.Score < 0.8 {
		t.Fatalf("unmatched verdict must still carry the best score, got %+v", unmatched)
	}
}

func TestScoreContainmentRatio(t *testing.T) {
	verdict := Score("mega", "megastore outlet", DefaultThreshold)
	if !verdict.Matched {
		t.Fatalf("containment must match, got %+v", verdict)
	}
	if verdict.Score >= DefaultNearExact {
		t.Fatalf("short containment must not be near-exact, got %+v", verdict)
	}
}

func TestScoreEmptyInputs(t *testing.T) {
	for _, tc := range [][2]string{{"", "nike"}, {"nike", ""}, {"", ""}} {
		verdict := Score(tc[0], tc[1], DefaultThreshold)
		if verdict.Matched || verdict.Reason != ReasonNone || verdict.Score != 0 {
			t.Fatalf("empty input %q/%q: %+v", tc[0], tc[1], verdict)
		}
	}
}

func TestVerdictInvariants(t *testing.T) {
	queries := []string{"Nike", "Найк", "random words here", "x"}
	candidates := []string{"Nike", "NIKE PRO MAX", "unrelated", "Пума"}
	for _, q := range queries {
		for _, c := range candidates {
			verdict := Score(q, c, DefaultThreshold)
			if verdict.Matched != (verdict.Reason != ReasonNone) {
				t.Fatalf("matched/reason invariant broken for %q vs %q: %+v", q, c, verdict)
			}
			if verdict.Score < 0 || verdict.Score > 1 {
				t.Fatalf("score out of bounds for %q vs %q: %+v", q, c, verdict)
			}
			exact := verdict.Reason == ReasonExact || verdict.Reason == ReasonExactTransliterated
			if exact != (verdict.Score == 1.0) {
				t.Fatalf("score 1.0 must coincide with exact reasons for %q vs %q: %+v", q, c, verdict)
			}
		}
	}
}

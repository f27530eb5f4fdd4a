package match

import "testing"

func TestRankClassScoping(t *testing.T) {
	candidates := []Candidate{
		{Registration: "100", Text: "EXAMPLE BRAND", Classes: []int{25}, Status: StatusActive},
		{Registration: "200", Text: "EXAMPLE BRAND", Classes: []int{9}, Status: StatusActive},
	}

	result := NewScorer().Rank("EXAMPLE BRAND", candidates, []int{25}, 0)
	if result.InScopeCount != 1 {
		t.Fatalf("expected 1 in-scope hit, got %d", result.InScopeCount)
	}
	if result.OutOfScopeCount != 1 {
		t.Fatalf("expected 1 out-of-scope hit, got %d", result.OutOfScopeCount)
	}
	if !result.ExactMatch {
		t.Fatalf("in-scope exact hit must set exact flag")
	}
	if result.BestScore != 1.0 {
		t.Fatalf("expected best score 1.0, got %f", result.BestScore)
	}
}

func TestRankOutOfScopeDoesNotSetFlags(t *testing.T) {
	candidates := []Candidate{
		{Registration: "200", Text: "EXAMPLE BRAND", Classes: []int{9}, Status: StatusActive},
	}

	result := NewScorer().Rank("EXAMPLE BRAND", candidates, []int{25}, 0)
	if result.ExactMatch || result.SimilarMatch {
		t.Fatalf("out-of-scope hit must not set match flags: %+v", result)
	}
	if result.BestScore != 0 {
		t.Fatalf("out-of-scope hit must not contribute to best score: %+v", result)
	}
	if result.OutOfScopeCount != 1 || result.InScopeCount != 0 {
		t.Fatalf("unexpected counters: %+v", result)
	}
}

func TestRankNoFilterMeansEverythingInScope(t *testing.T) {
	candidates := []Candidate{
		{Registration: "100", Text: "EXAMPLE BRAND", Classes: []int{9}, Status: StatusActive},
	}

	result := NewScorer().Rank("EXAMPLE BRAND", candidates, nil, 0)
	if result.InScopeCount != 1 || result.OutOfScopeCount != 0 {
		t.Fatalf("unexpected counters without filter: %+v", result)
	}
	if !result.ExactMatch {
		t.Fatalf("expected exact flag without filter: %+v", result)
	}
}

func TestRankOrdering(t *testing.T) {
	candidates := []Candidate{
		{Registration: "1", Text: "ALPHAMAX", Classes: []int{25}, Status: StatusActive},
		{Registration: "2", Text: "ALPHA", Classes: []int{25}, Status: StatusExpired},
		{Registration: "3", Text: "ALPHA", Classes: []int{25}, Status: StatusActive},
	}

	result := NewScorer().Rank("ALPHA", candidates, []int{25}, 0)
	if len(result.InScope) != 3 {
		t.Fatalf("expected 3 ranked hits, got %d", len(result.InScope))
	}
	// Exact + active first, exact + expired second, weaker hit last.
	if result.InScope[0].Registration != "3" {
		t.Fatalf("expected active exact hit first, got %+v", result.InScope[0])
	}
	if result.InScope[1].Registration != "2" {
		t.Fatalf("expected expired exact hit second, got %+v", result.InScope[1])
	}
	if result.InScope[2].Registration != "1" {
		t.Fatalf("expected weaker hit last, got %+v", result.InScope[2])
	}
}

func TestRankSimilarityTierBeatsStatus(t *testing.T) {
	// An expired mark in the middle similarity tier (5/6 containment) still
	// outranks a weaker hit (5/8 containment) from an active mark.
	candidates := []Candidate{
		{Registration: "1", Text: "ALPHAMAX", Classes: []int{25}, Status: StatusActive},
		{Registration: "2", Text: "ALPHAX", Classes: []int{25}, Status: StatusExpired},
	}

	result := NewScorer().Rank("ALPHA", candidates, []int{25}, 0)
	if len(result.InScope) != 2 {
		t.Fatalf("expected 2 ranked hits, got %d", len(result.InScope))
	}
	if result.InScope[0].Registration != "2" {
		t.Fatalf("expected middle-tier hit first, got %+v", result.InScope[0])
	}
}

func TestRankDeduplicatesAndCaps(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 3; i++ {
		candidates = append(candidates, Candidate{Registration: "42", Text: "ALPHA", Classes: []int{25}, Status: StatusActive})
	}
	candidates = append(candidates,
		Candidate{Registration: "43", Text: "ALPHA", Classes: []int{25}, Status: StatusActive},
		Candidate{Registration: "44", Text: "ALPHA", Classes: []int{25}, Status: StatusActive},
	)

	result := NewScorer().Rank("ALPHA", candidates, []int{25}, 2)
	if result.InScopeCount != 3 {
		t.Fatalf("expected 3 deduplicated hits, got %d", result.InScopeCount)
	}
	if len(result.InScope) != 2 {
		t.Fatalf("expected capped list of 2, got %d", len(result.InScope))
	}
}

func TestRankIrrelevantCandidatesSkipped(t *testing.T) {
	candidates := []Candidate{
		{Registration: "9", Text: "completely unrelated designation", Classes: []int{25}, Status: StatusActive},
	}

	result := NewScorer().Rank("ALPHA", candidates, []int{25}, 0)
	if result.InScopeCount != 0 || result.OutOfScopeCount != 0 || len(result.InScope) != 0 {
		t.Fatalf("irrelevant candidate must be dropped entirely: %+v", result)
	}
}

package registry

import (
	"context"
	"errors"
	"testing"

	"mark-risk-eval/internal/match"
)

// fakeProvider replays a fixed candidate set and records the queries it saw.
type fakeProvider struct {
	candidates []match.Candidate
	err        error
	queries    []string
}

func (f *fakeProvider) Name() string { return "fake registry" }

func (f *fakeProvider) Search(_ context.Context, query string) ([]match.Candidate, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func newTestChecker(p Provider) *Checker {
	return NewChecker(p, match.NewScorer(), 0, nil)
}

func TestCheckExactMatch(t *testing.T) {
	provider := &fakeProvider{candidates: []match.Candidate{
		{Registration: "RU100", Text: "Спортмастер", Classes: []int{25, 35}, Status: match.StatusActive},
	}}
	checker := newTestChecker(provider)

	result := checker.Check(context.Background(), "Спортмастер", []int{25})

	if !result.Checked {
		t.Fatal("result must be checked")
	}
	if !result.ExactMatch {
		t.Fatal("expected an exact match")
	}
	if result.SimilarityScore != 1.0 {
		t.Fatalf("similarity = %v, want 1.0", result.SimilarityScore)
	}
	if result.InScopeCount != 1 {
		t.Fatalf("in-scope count = %d, want 1", result.InScopeCount)
	}
	if len(result.RegistrationNumbers) != 1 || result.RegistrationNumbers[0] != "RU100" {
		t.Fatalf("registrations = %v", result.RegistrationNumbers)
	}
}

func TestCheckClassScope(t *testing.T) {
	provider := &fakeProvider{candidates: []match.Candidate{
		{Registration: "RU200", Text: "Ромашка", Classes: []int{5}, Status: match.StatusActive},
	}}
	checker := newTestChecker(provider)

	result := checker.Check(context.Background(), "Ромашка", []int{25})

	if result.ExactMatch || result.SimilarMatch {
		t.Fatal("an out-of-scope record must not raise the match flags")
	}
	if result.InScopeCount != 0 || result.OutOfScopeCount != 1 {
		t.Fatalf("in/out = %d/%d, want 0/1", result.InScopeCount, result.OutOfScopeCount)
	}
}

func TestCheckProviderFailure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	checker := newTestChecker(provider)

	result := checker.Check(context.Background(), "Ромашка", []int{25})

	if result.Checked {
		t.Fatal("a failed provider must yield an unchecked result")
	}
	if result.Notes == "" {
		t.Fatal("an unchecked result must explain itself")
	}
}

func TestCheckQueriesVariants(t *testing.T) {
	provider := &fakeProvider{}
	checker := newTestChecker(provider)

	checker.Check(context.Background(), "Nike", []int{25})

	if len(provider.queries) < 2 {
		t.Fatalf("expected transliteration variants to be queried, got %v", provider.queries)
	}
	if len(provider.queries) > maxQueryVariants {
		t.Fatalf("queried %d variants, cap is %d", len(provider.queries), maxQueryVariants)
	}
}

func TestCheckMergesDuplicateCandidates(t *testing.T) {
	// The same record returned for every variant must be counted once.
	provider := &fakeProvider{candidates: []match.Candidate{
		{Registration: "RU300", Text: "Nike", Classes: []int{25}, Status: match.StatusActive},
	}}
	checker := newTestChecker(provider)

	result := checker.Check(context.Background(), "Nike", []int{25})

	if result.InScopeCount != 1 {
		t.Fatalf("in-scope count = %d, want 1 after dedup", result.InScopeCount)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("matches = %d, want 1 after dedup", len(result.Matches))
	}
}

func TestCheckEmptyQuery(t *testing.T) {
	provider := &fakeProvider{}
	checker := newTestChecker(provider)

	result := checker.Check(context.Background(), "   !!! ", nil)

	if !result.Checked {
		t.Fatal("empty designation is a checked no-op")
	}
	if len(provider.queries) != 0 {
		t.Fatalf("provider must not be queried for an empty designation: %v", provider.queries)
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want match.CandidateStatus
	}{
		{"active", match.StatusActive},
		{"REGISTERED", match.StatusActive},
		{"Live", match.StatusActive},
		{"pending", match.StatusPending},
		{"Under Examination", match.StatusPending},
		{"expired", match.StatusExpired},
		{"Cancelled", match.StatusExpired},
		{"canceled", match.StatusExpired},
		{"", match.StatusUnknown},
		{"who knows", match.StatusUnknown},
	}
	for _, tc := range cases {
		if got := ParseStatus(tc.in); got != tc.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

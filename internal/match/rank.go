package match

import "sort"

// CandidateStatus is the lifecycle state of a registry record.
type CandidateStatus int

const (
	StatusUnknown CandidateStatus = iota
	StatusActive
	StatusPending
	StatusExpired
)

func (s CandidateStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPending:
		return "pending"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Candidate is a designation record supplied by a registry collaborator. The
// ranker reads it and never mutates it.
type Candidate struct {
	Registration string
	Text         string
	Classes      []int
	Status       CandidateStatus
	Holder       string
}

// MatchInfo is one ranked hit against a candidate record.
type MatchInfo struct {
	Text         string  `json:"text"`
	Registration string  `json:"registration_number"`
	Score        float64 `json:"similarity_score"`
	Reason       string  `json:"reason"`
	Classes      []int   `json:"classes"`
	Status       string  `json:"status"`
	Holder       string  `json:"holder"`
	ClassMatch   bool    `json:"class_match"`
}

// RankResult aggregates the scored candidates for one query. Only in-scope
// hits (class overlap, or no filter supplied) contribute to BestScore and the
// exact/similar flags; out-of-scope hits are surfaced as a count only.
type RankResult struct {
	InScope         []MatchInfo `json:"in_scope"`
	InScopeCount    int         `json:"in_scope_count"`
	OutOfScopeCount int         `json:"out_of_scope_count"`
	BestScore       float64     `json:"best_score"`
	ExactMatch      bool        `json:"exact_match"`
	SimilarMatch    bool        `json:"similar_match"`
}

// DefaultMaxMatches caps the ranked in-scope list.
const DefaultMaxMatches = 15

// relevanceFloor is the minimum score for a non-matching candidate with class
// overlap to still be surfaced.
const relevanceFloor = 0.5

// Rank scores every candidate against query, filters by class scope, and
// returns a deduplicated, size-bounded ranking. A candidate is relevant when
// the scorer matched it or when it shares a class with the filter and scored
// at least 0.5. limit <= 0 means DefaultMaxMatches.
func (s Scorer) Rank(query string, candidates []Candidate, classFilter []int, limit int) RankResult {
	if limit <= 0 {
		limit = DefaultMaxMatches
	}

	filter := make(map[int]struct{}, len(classFilter))
	for _, c := range classFilter {
		filter[c] = struct{}{}
	}

	var result RankResult
	seen := make(map[string]struct{}, len(candidates))

	for _, candidate := range candidates {
		key := candidate.Registration + "|" + NoSpaces(candidate.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		verdict := s.Score(query, candidate.Text)
		classMatch := len(filter) == 0 || intersectsClasses(candidate.Classes, filter)

		relevant := verdict.Matched || (classMatch && verdict.Score >= relevanceFloor)
		if !relevant {
			continue
		}

		if !classMatch {
			result.OutOfScopeCount++
			continue
		}

		result.InScopeCount++
		if verdict.Score > result.BestScore {
			result.BestScore = verdict.Score
		}
		switch {
		case verdict.Reason == ReasonExact || verdict.Reason == ReasonExactTransliterated:
			result.ExactMatch = true
		case verdict.Matched && verdict.Score >= s.Threshold:
			result.SimilarMatch = true
		}

		result.InScope = append(result.InScope, MatchInfo{
			Text:         candidate.Text,
			Registration: candidate.Registration,
			Score:        verdict.Score,
			Reason:       verdict.Reason.String(),
			Classes:      candidate.Classes,
			Status:       candidate.Status.String(),
			Holder:       candidate.Holder,
			ClassMatch:   classMatch,
		})
	}

	sort.SliceStable(result.InScope, func(i, j int) bool {
		a, b := result.InScope[i], result.InScope[j]
		at, bt := s.similarityTier(a.Score), s.similarityTier(b.Score)
		if at != bt {
			return at < bt
		}
		as, bs := statusTier(a.Status), statusTier(b.Status)
		if as != bs {
			return as < bs
		}
		return a.Score > b.Score
	})

	if len(result.InScope) > limit {
		result.InScope = result.InScope[:limit]
	}
	return result
}

// similarityTier buckets scores so that near-exact hits always sort ahead of
// merely similar ones regardless of status.
func (s Scorer) similarityTier(score float64) int {
	switch {
	case score >= s.NearExact:
		return 0
	case score >= DefaultSimilarTier:
		return 1
	default:
		return 2
	}
}

// statusTier surfaces currently-active marks first and expired ones last.
func statusTier(status string) int {
	switch status {
	case StatusActive.String():
		return 0
	case StatusExpired.String():
		return 2
	default:
		return 1
	}
}

func intersectsClasses(classes []int, filter map[int]struct{}) bool {
	for _, c := range classes {
		if _, ok := filter[c]; ok {
			return true
		}
	}
	return false
}

package scoring

// Aggregate folds risk factors into a single 0..100 score: the weighted mean
// of per-factor severity scores, where each factor's effective weight is its
// own weight times its category weight. No factors means no evidence of risk.
func Aggregate(factors []RiskFactor, p Policy) float64 {
	var weighted, total float64
	for _, f := range factors {
		w := f.Weight * p.CategoryWeight(f.Category)
		weighted += severityScore(f.Severity) * w
		total += w
	}
	if total == 0 {
		return 0
	}
	score := weighted / total
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Classify maps a score onto the traffic-light bands.
func Classify(score float64, p Policy) Severity {
	switch {
	case score >= p.RedThreshold:
		return SeverityRed
	case score >= p.YellowThreshold:
		return SeverityYellow
	default:
		return SeverityGreen
	}
}

// stringSet is an insertion-ordered set of non-empty strings.
type stringSet struct {
	seen  map[string]struct{}
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func (s *stringSet) values() []string {
	return s.items
}

package scoring

import (
	"fmt"

	"mark-risk-eval/internal/match"
)

// Default policy values. The category weights and classification thresholds
// are tuned so that a single exact trademark hit alone produces a red verdict
// while a lone OCR-text observation stays yellow.
const (
	DefaultRedThreshold    = 70.0
	DefaultYellowThreshold = 30.0
	DefaultImageHitLimit   = 10

	DefaultTrademarkWeight   = 1.5
	DefaultCopyrightWeight   = 1.3
	DefaultSourceWeight      = 1.2
	DefaultImageSearchWeight = 1.0
	DefaultTextOnImageWeight = 0.8
)

// Policy collects every tunable of the risk engine. A Policy is validated
// once at startup; evaluation assumes it is well formed.
type Policy struct {
	// RedThreshold and YellowThreshold split the weighted score into the
	// three verdict bands: score >= red -> red, score >= yellow -> yellow.
	RedThreshold    float64
	YellowThreshold float64

	// SimilarityThreshold is the minimum similarity for a designation match.
	// NearExact is the boundary above which a match counts as near-exact and
	// escalates straight to red. PartialWordCap bounds multi-word discounts.
	SimilarityThreshold float64
	NearExact           float64
	PartialWordCap      float64

	// ImageHitLimit is the reverse-image-search result count above which wide
	// distribution is assumed. MaxMatches caps ranked match lists.
	ImageHitLimit int
	MaxMatches    int

	// Per-category factor weights.
	TrademarkWeight   float64
	CopyrightWeight   float64
	SourceWeight      float64
	ImageSearchWeight float64
	TextOnImageWeight float64
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		RedThreshold:        DefaultRedThreshold,
		YellowThreshold:     DefaultYellowThreshold,
		SimilarityThreshold: match.DefaultThreshold,
		NearExact:           match.DefaultNearExact,
		PartialWordCap:      match.DefaultPartialWordCap,
		ImageHitLimit:       DefaultImageHitLimit,
		MaxMatches:          match.DefaultMaxMatches,
		TrademarkWeight:     DefaultTrademarkWeight,
		CopyrightWeight:     DefaultCopyrightWeight,
		SourceWeight:        DefaultSourceWeight,
		ImageSearchWeight:   DefaultImageSearchWeight,
		TextOnImageWeight:   DefaultTextOnImageWeight,
	}
}

// Validate rejects a policy that would make evaluation meaningless. Callers
// treat a validation failure as fatal at startup.
func (p Policy) Validate() error {
	if p.YellowThreshold <= 0 || p.RedThreshold <= p.YellowThreshold || p.RedThreshold > 100 {
		return fmt.Errorf("thresholds must satisfy 0 < yellow (%v) < red (%v) <= 100", p.YellowThreshold, p.RedThreshold)
	}
	if p.SimilarityThreshold <= 0 || p.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold %v out of range (0, 1]", p.SimilarityThreshold)
	}
	if p.NearExact < p.SimilarityThreshold || p.NearExact > 1 {
		return fmt.Errorf("near-exact boundary %v must be in [%v, 1]", p.NearExact, p.SimilarityThreshold)
	}
	if p.PartialWordCap <= 0 || p.PartialWordCap > 1 {
		return fmt.Errorf("partial word cap %v out of range (0, 1]", p.PartialWordCap)
	}
	if p.ImageHitLimit <= 0 {
		return fmt.Errorf("image hit limit must be positive, got %d", p.ImageHitLimit)
	}
	if p.MaxMatches <= 0 {
		return fmt.Errorf("max matches must be positive, got %d", p.MaxMatches)
	}
	for _, c := range []Category{CategoryTrademark, CategoryCopyright, CategorySource, CategoryImageSearch, CategoryTextOnImage} {
		if p.CategoryWeight(c) <= 0 {
			return fmt.Errorf("category %s has non-positive weight %v", c, p.CategoryWeight(c))
		}
	}
	return nil
}

// CategoryWeight returns the aggregation weight for a category. The switch is
// exhaustive over the closed Category set.
func (p Policy) CategoryWeight(c Category) float64 {
	switch c {
	case CategoryTrademark:
		return p.TrademarkWeight
	case CategoryCopyright:
		return p.CopyrightWeight
	case CategorySource:
		return p.SourceWeight
	case CategoryImageSearch:
		return p.ImageSearchWeight
	case CategoryTextOnImage:
		return p.TextOnImageWeight
	default:
		return 0
	}
}

// Scorer builds a similarity scorer tuned to this policy.
func (p Policy) Scorer() match.Scorer {
	return match.Scorer{
		Threshold:      p.SimilarityThreshold,
		NearExact:      p.NearExact,
		PartialWordCap: p.PartialWordCap,
	}
}

package scoring

import (
	"fmt"

	"mark-risk-eval/internal/registry"
)

// Severity is the traffic-light level of a single risk factor or of the
// overall verdict. Ordering matters: green < yellow < red.
type Severity int

const (
	SeverityGreen Severity = iota
	SeverityYellow
	SeverityRed
)

func (s Severity) String() string {
	switch s {
	case SeverityRed:
		return "red"
	case SeverityYellow:
		return "yellow"
	default:
		return "green"
	}
}

// MarshalText renders the severity as its traffic-light label.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a traffic-light label.
func (s *Severity) UnmarshalText(data []byte) error {
	parsed, err := ParseSeverity(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity converts a traffic-light label to a Severity.
func ParseSeverity(value string) (Severity, error) {
	switch value {
	case "red":
		return SeverityRed, nil
	case "yellow":
		return SeverityYellow, nil
	case "green":
		return SeverityGreen, nil
	default:
		return SeverityGreen, fmt.Errorf("unknown severity %q", value)
	}
}

// severityScore is the fixed numeric contribution of each severity.
func severityScore(s Severity) float64 {
	switch s {
	case SeverityRed:
		return 100
	case SeverityYellow:
		return 50
	default:
		return 0
	}
}

// Category identifies which check a risk factor came from. The set is closed:
// every category has an explicit weight in the policy, so an unrecognized
// category cannot silently contribute zero.
type Category int

const (
	CategoryTrademark Category = iota
	CategoryCopyright
	CategorySource
	CategoryImageSearch
	CategoryTextOnImage
)

func (c Category) String() string {
	switch c {
	case CategoryTrademark:
		return "trademark"
	case CategoryCopyright:
		return "copyright"
	case CategorySource:
		return "source"
	case CategoryImageSearch:
		return "image_search"
	default:
		return "text_on_image"
	}
}

// MarshalText renders the category name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses a category name.
func (c *Category) UnmarshalText(data []byte) error {
	switch string(data) {
	case "trademark":
		*c = CategoryTrademark
	case "copyright":
		*c = CategoryCopyright
	case "source":
		*c = CategorySource
	case "image_search":
		*c = CategoryImageSearch
	case "text_on_image":
		*c = CategoryTextOnImage
	default:
		return fmt.Errorf("unknown category %q", string(data))
	}
	return nil
}

// RiskFactor is one weighted piece of evidence. Immutable once created.
type RiskFactor struct {
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Weight      float64  `json:"weight"`
	Description string   `json:"description"`
}

// RiskAssessment is the finalized per-product report. It is created once per
// evaluation and never mutated afterwards.
type RiskAssessment struct {
	OverallStatus       Severity     `json:"overall_status"`
	OverallScore        float64      `json:"overall_score"`
	Factors             []RiskFactor `json:"factors"`
	Summary             string       `json:"summary"`
	Recommendations     []string     `json:"recommendations"`
	RequiresManualCheck bool         `json:"requires_manual_check"`
	ManualCheckItems    []string     `json:"manual_check_items"`
}

// SourceType classifies where a product image originated.
type SourceType int

const (
	SourceUnknown SourceType = iota
	SourceInternalDesigner
	SourceContractor
	SourceAIGenerated
	SourceStockFree
	SourceStockPaid
)

func (s SourceType) String() string {
	switch s {
	case SourceInternalDesigner:
		return "internal_designer"
	case SourceContractor:
		return "contractor"
	case SourceAIGenerated:
		return "ai_generated"
	case SourceStockFree:
		return "stock_free"
	case SourceStockPaid:
		return "stock_paid"
	default:
		return "unknown"
	}
}

// MarshalText renders the source type name.
func (s SourceType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a source type name; anything unrecognized maps to
// unknown rather than failing, per the degrade-to-safe-default policy.
func (s *SourceType) UnmarshalText(data []byte) error {
	switch string(data) {
	case "internal_designer":
		*s = SourceInternalDesigner
	case "contractor":
		*s = SourceContractor
	case "ai_generated":
		*s = SourceAIGenerated
	case "stock_free":
		*s = SourceStockFree
	case "stock_paid":
		*s = SourceStockPaid
	default:
		*s = SourceUnknown
	}
	return nil
}

// riskTier is the intrinsic risk of a provenance source type.
type riskTier int

const (
	tierLow riskTier = iota
	tierMedium
	tierHigh
)

type sourceProfile struct {
	label         string
	tier          riskTier
	needsContract bool
	needsLicense  bool
}

// sourceProfileFor is the fixed provenance lookup table.
func sourceProfileFor(s SourceType) sourceProfile {
	switch s {
	case SourceInternalDesigner:
		return sourceProfile{label: "in-house designer", tier: tierLow}
	case SourceContractor:
		return sourceProfile{label: "contractor", tier: tierMedium, needsContract: true}
	case SourceAIGenerated:
		return sourceProfile{label: "AI generated", tier: tierMedium, needsLicense: true}
	case SourceStockFree:
		return sourceProfile{label: "free stock", tier: tierMedium, needsLicense: true}
	case SourceStockPaid:
		return sourceProfile{label: "paid stock", tier: tierLow}
	default:
		return sourceProfile{label: "unknown", tier: tierHigh}
	}
}

// Provenance describes an image's origin and the usage-rights documents on
// file for it.
type Provenance struct {
	SourceType  SourceType `json:"source_type"`
	CreatorName string     `json:"creator_name,omitempty"`
	HasContract bool       `json:"has_contract"`
	HasLicense  bool       `json:"has_license"`
}

// ImageSearchSummary is the per-source reverse-image-search outcome supplied
// by the search collaborator.
type ImageSearchSummary struct {
	Source           string   `json:"source"`
	TotalResults     int      `json:"total_results"`
	ExactMatches     int      `json:"exact_matches"`
	PotentialAuthors []string `json:"potential_authors,omitempty"`
	KnownSources     []string `json:"known_sources,omitempty"`
	Checked          bool     `json:"checked"`
	Notes            string   `json:"notes,omitempty"`
}

// CopyrightFinding lists third-party elements detected in product text or
// artwork.
type CopyrightFinding struct {
	Brands       []string `json:"brands,omitempty"`
	Characters   []string `json:"characters,omitempty"`
	KnownWorks   []string `json:"known_works,omitempty"`
	PeoplePhotos bool     `json:"people_photos"`
	Checked      bool     `json:"checked"`
}

// TextOnImage is one OCR-recognized text fragment.
type TextOnImage struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// Product carries one designation plus the pre-fetched external check results
// that feed the evaluation.
type Product struct {
	Article            string                 `json:"article"`
	Name               string                 `json:"name"`
	Classes            []int                  `json:"classes,omitempty"`
	TextOnProduct      []string               `json:"text_on_product,omitempty"`
	LogosOnProduct     []string               `json:"logos_on_product,omitempty"`
	Source             *Provenance            `json:"source,omitempty"`
	TrademarkResults   []registry.CheckResult `json:"trademark_results,omitempty"`
	ImageSearchResults []ImageSearchSummary   `json:"image_search_results,omitempty"`
	CopyrightResults   []CopyrightFinding     `json:"copyright_results,omitempty"`
	RecognizedTexts    []TextOnImage          `json:"recognized_texts,omitempty"`
}

package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"mark-risk-eval/internal/match"
)

// fuzzyTermThreshold is the per-word similarity above which a noisy OCR token
// still counts as a known term.
const fuzzyTermThreshold = 0.85

// BrandDetector scans free text for well-known brand names and protected
// fictional characters. Term lists are loaded once at construction; each term
// is stored alongside its normalized form and transliteration variants so
// that Cyrillic renderings of Latin brands (and vice versa) are caught.
type BrandDetector struct {
	brands     []detectorTerm
	characters []detectorTerm
}

type detectorTerm struct {
	display  string
	variants []string
}

type termFile struct {
	Terms []string `json:"terms"`
}

// NewBrandDetector loads the brand and character term files.
func NewBrandDetector(brandsPath, charactersPath string) (*BrandDetector, error) {
	brands, err := loadTerms(brandsPath)
	if err != nil {
		return nil, fmt.Errorf("load brand terms: %w", err)
	}
	characters, err := loadTerms(charactersPath)
	if err != nil {
		return nil, fmt.Errorf("load character terms: %w", err)
	}
	d := &BrandDetector{brands: brands, characters: characters}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate rejects empty term lists.
func (d *BrandDetector) Validate() error {
	if len(d.brands) == 0 {
		return fmt.Errorf("brand term list is empty")
	}
	if len(d.characters) == 0 {
		return fmt.Errorf("character term list is empty")
	}
	return nil
}

func loadTerms(path string) ([]detectorTerm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var tf termFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	terms := make([]detectorTerm, 0, len(tf.Terms))
	for _, raw := range tf.Terms {
		if match.Normalize(raw) == "" {
			continue
		}
		terms = append(terms, detectorTerm{
			display:  strings.TrimSpace(raw),
			variants: match.Variants(raw),
		})
	}
	return terms, nil
}

// Detect scans the given texts and reports every known brand and character
// they mention. The finding is always marked checked: an empty result is a
// real negative, not a skipped check.
func (d *BrandDetector) Detect(texts ...string) CopyrightFinding {
	finding := CopyrightFinding{Checked: true}
	brands := newStringSet()
	characters := newStringSet()
	for _, text := range texts {
		normalized := match.Normalize(text)
		if normalized == "" {
			continue
		}
		words := strings.Fields(normalized)
		for _, term := range d.brands {
			if termMentioned(term, normalized, words) {
				brands.add(term.display)
			}
		}
		for _, term := range d.characters {
			if termMentioned(term, normalized, words) {
				characters.add(term.display)
			}
		}
	}
	finding.Brands = brands.values()
	finding.Characters = characters.values()
	return finding
}

// termMentioned reports whether any variant of the term appears in the text:
// by substring containment first, then by fuzzy per-word comparison to absorb
// OCR noise.
func termMentioned(term detectorTerm, normalized string, words []string) bool {
	for _, variant := range term.variants {
		if variant == "" {
			continue
		}
		if strings.Contains(normalized, variant) {
			return true
		}
		if !strings.Contains(variant, " ") {
			for _, word := range words {
				if match.Score(word, variant, fuzzyTermThreshold).Score >= fuzzyTermThreshold {
					return true
				}
			}
		}
	}
	return false
}

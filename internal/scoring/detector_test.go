package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestDetector(t *testing.T) *BrandDetector {
	t.Helper()
	d, err := NewBrandDetector("known_brands.json", "known_characters.json")
	if err != nil {
		t.Fatalf("NewBrandDetector: %v", err)
	}
	return d
}

func TestDetectBrandsAndCharacters(t *testing.T) {
	d := newTestDetector(t)
	cases := []struct {
		name           string
		texts          []string
		wantBrands     []string
		wantCharacters []string
	}{
		{
			name:       "latin brand in product name",
			texts:      []string{"Футболка Nike Air спортивная"},
			wantBrands: []string{"Nike"},
		},
		{
			name:       "cyrillic rendering of latin brand",
			texts:      []string{"кроссовки найк белые"},
			wantBrands: []string{"Nike"},
		},
		{
			name:           "character in cyrillic",
			texts:          []string{"Игрушка Микки Маус плюшевая"},
			wantCharacters: []string{"Микки Маус"},
		},
		{
			name:           "character in latin",
			texts:          []string{"Batman hoodie"},
			wantCharacters: []string{"Batman"},
		},
		{
			name:       "ocr noise within tolerance",
			texts:      []string{"сумка balenciga кожаная"},
			wantBrands: []string{"Balenciaga"},
		},
		{
			name:  "clean text",
			texts: []string{"Кружка керамическая с цветами"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			finding := d.Detect(tc.texts...)
			if !finding.Checked {
				t.Fatal("finding must be marked checked")
			}
			assertContainsAll(t, "brands", finding.Brands, tc.wantBrands)
			assertContainsAll(t, "characters", finding.Characters, tc.wantCharacters)
			if len(tc.wantBrands) == 0 && len(finding.Brands) != 0 {
				t.Fatalf("unexpected brands: %v", finding.Brands)
			}
			if len(tc.wantCharacters) == 0 && len(finding.Characters) != 0 {
				t.Fatalf("unexpected characters: %v", finding.Characters)
			}
		})
	}
}

func assertContainsAll(t *testing.T, label string, got, want []string) {
	t.Helper()
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("%s = %v, missing %q", label, got, w)
		}
	}
}

func TestDetectDeduplicatesAcrossTexts(t *testing.T) {
	d := newTestDetector(t)
	finding := d.Detect("Nike sport", "кепка Nike", "найк оригинал")
	count := 0
	for _, b := range finding.Brands {
		if b == "Nike" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("Nike reported %d times, want once: %v", count, finding.Brands)
	}
}

func TestDetectEmptyTexts(t *testing.T) {
	d := newTestDetector(t)
	finding := d.Detect("", "   ")
	if !finding.Checked {
		t.Fatal("finding must be marked checked even with no usable text")
	}
	if len(finding.Brands) != 0 || len(finding.Characters) != 0 {
		t.Fatalf("empty input produced findings: %+v", finding)
	}
}

func TestNewBrandDetectorRejectsEmptyList(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(`{"terms": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewBrandDetector(empty, "known_characters.json"); err == nil {
		t.Fatal("expected error for empty brand list")
	}
}

func TestNewBrandDetectorMissingFile(t *testing.T) {
	if _, err := NewBrandDetector("no-such-file.json", "known_characters.json"); err == nil {
		t.Fatal("expected error for missing term file")
	}
}

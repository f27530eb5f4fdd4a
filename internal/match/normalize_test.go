package match

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \t  ", ""},
		{"lowercases", "NIKE", "nike"},
		{"strips trademark symbol", "Nike®", "nike"},
		{"strips punctuation", "Coca-Cola!", "cocacola"},
		{"collapses whitespace", "  EXAMPLE   BRAND  ", "example brand"},
		{"keeps cyrillic", "Найк", "найк"},
		{"keeps digits", "Brand 24/7", "brand 247"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.input); got != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, got)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Nike®", "  EXAMPLE   BRAND  ", "Свинка Пеппа", "a-b_c d"}
	for _, input := range inputs {
		once := Normalize(input)
		if twice := Normalize(once); twice != once {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", input, once, twice)
		}
	}
}

func TestNormalizeCaseAndPunctuationInsensitive(t *testing.T) {
	if Normalize("Nike®") != Normalize("nike") {
		t.Fatalf("expected Nike® and nike to normalize identically")
	}
}

func TestNoSpaces(t *testing.T) {
	if got := NoSpaces("Example  Brand"); got != "examplebrand" {
		t.Fatalf("expected examplebrand got %q", got)
	}
}

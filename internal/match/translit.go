package match

import "strings"

// phoneticCyrillicToLatin maps single Cyrillic letters to the Latin spelling
// closest to their sound.
var phoneticCyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "yo",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
}

// standardCyrillicToLatin is the GOST-style transliteration table, an
// additional variant source where it disagrees with the phonetic table.
var standardCyrillicToLatin = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
	'ж': "zh", 'з': "z", 'и': "i", 'й': "j", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "c", 'ч': "ch", 'ш': "sh", 'щ': "shch",
	'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "ju", 'я': "ja",
}

// cyrillicDigraphsToLatin captures diphthongs whose English spelling differs
// from the letter-by-letter rendering ("найк" -> "nik"). Applied greedily
// before single letters, longest first.
var cyrillicDigraphsToLatin = []struct{ from, to string }{
	{"ай", "i"},
	{"ей", "ey"},
	{"ой", "oy"},
	{"дж", "j"},
	{"кс", "x"},
}

// latinDigraphsToCyrillic is substituted before single letters, longest first.
var latinDigraphsToCyrillic = []struct{ from, to string }{
	{"shch", "щ"},
	{"ch", "ч"},
	{"sh", "ш"},
	{"zh", "ж"},
	{"th", "т"},
	{"ph", "ф"},
	{"ck", "к"},
	{"yo", "ё"},
	{"yu", "ю"},
	{"ya", "я"},
}

var latinToCyrillicSingles = map[rune]string{
	'a': "а", 'b': "б", 'c': "к", 'd': "д", 'e': "е", 'f': "ф", 'g': "г",
	'h': "х", 'i': "и", 'j': "дж", 'k': "к", 'l': "л", 'm': "м", 'n': "н",
	'o': "о", 'p': "п", 'q': "к", 'r': "р", 's': "с", 't': "т", 'u': "у",
	'v': "в", 'w': "в", 'x': "кс", 'y': "й", 'z': "з",
}

// substitutionPairs are interchangeable letter groups applied to every
// first-level variant.
var substitutionPairs = []struct{ from, to string }{
	{"c", "k"},
	{"k", "c"},
	{"i", "y"},
	{"y", "i"},
	{"ph", "f"},
	{"f", "ph"},
	{"ks", "x"},
	{"x", "ks"},
}

// Variants returns the distinct non-empty respellings of text: the normalized
// input itself, phonetic and standard Cyrillic->Latin renderings, a phonetic
// Latin->Cyrillic rendering (digraphs first), plus letter-substitution and
// silent-final-e variants of each. Output order is deterministic (insertion
// order); runtime is linear in input length, no recursive expansion.
func Variants(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	set := newOrderedSet()
	set.add(normalized)

	hasCyrillic, hasLatin := scriptProfile(normalized)
	if hasCyrillic {
		set.add(cyrillicToLatin(normalized, phoneticCyrillicToLatin, true))
		set.add(cyrillicToLatin(normalized, standardCyrillicToLatin, false))
	}
	if hasLatin {
		set.add(latinToCyrillic(normalized))
	}

	for _, base := range set.values() {
		for _, pair := range substitutionPairs {
			if strings.Contains(base, pair.from) {
				set.add(strings.ReplaceAll(base, pair.from, pair.to))
			}
		}
		set.add(trimSilentE(base))
	}

	return set.values()
}

func scriptProfile(text string) (hasCyrillic, hasLatin bool) {
	for _, r := range text {
		switch {
		case r >= 0x0400 && r <= 0x04FF:
			hasCyrillic = true
		case r >= 'a' && r <= 'z':
			hasLatin = true
		}
	}
	return hasCyrillic, hasLatin
}

func cyrillicToLatin(text string, table map[rune]string, useDigraphs bool) string {
	var b strings.Builder
	b.Grow(len(text))
	runes := []rune(text)
	for i := 0; i < len(runes); {
		if useDigraphs {
			matched := false
			for _, d := range cyrillicDigraphsToLatin {
				df := []rune(d.from)
				if i+len(df) <= len(runes) && string(runes[i:i+len(df)]) == d.from {
					b.WriteString(d.to)
					i += len(df)
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		if mapped, ok := table[runes[i]]; ok {
			b.WriteString(mapped)
		} else {
			b.WriteRune(runes[i])
		}
		i++
	}
	return b.String()
}

func latinToCyrillic(text string) string {
	// Digraphs first, longest match first, then single letters.
	replaced := text
	for _, d := range latinDigraphsToCyrillic {
		replaced = strings.ReplaceAll(replaced, d.from, d.to)
	}
	var b strings.Builder
	b.Grow(len(replaced))
	for _, r := range replaced {
		if mapped, ok := latinToCyrillicSingles[r]; ok {
			b.WriteString(mapped)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// trimSilentE drops a trailing silent "e" after a consonant ("nike" -> "nik"),
// a common source of Latin/Cyrillic brand confusion. Returns "" when the rule
// does not apply.
func trimSilentE(text string) string {
	runes := []rune(text)
	if len(runes) < 4 || runes[len(runes)-1] != 'e' {
		return ""
	}
	prev := runes[len(runes)-2]
	if prev < 'a' || prev > 'z' || strings.ContainsRune("aeiouy", prev) {
		return ""
	}
	return string(runes[:len(runes)-1])
}

// orderedSet keeps insertion order so variant output is deterministic.
type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

func (s *orderedSet) add(value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, ok := s.seen[value]; ok {
		return
	}
	s.seen[value] = struct{}{}
	s.items = append(s.items, value)
}

func (s *orderedSet) values() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

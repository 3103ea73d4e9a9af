package orphan

import (
	"strings"
	"unicode"
)

// stopwords are structural fragments extraction tools put into ids. They
// carry no meaning for matching names.
var stopwords = map[string]struct{}{
	"pkg": {}, "package": {}, "blk": {}, "block": {}, "act": {}, "activity": {},
	"uuid": {}, "node": {}, "id": {}, "ref": {}, "elem": {}, "element": {},
	"prop": {}, "property": {}, "port": {}, "sm": {}, "state": {}, "req": {},
	"requirement": {}, "cf": {}, "of": {}, "flow": {}, "the": {}, "new": {},
	"conn": {}, "connector": {}, "int": {}, "interaction": {}, "msg": {},
	"model": {}, "diagram": {}, "bdd": {}, "ibd": {}, "stm": {}, "uc": {},
}

// normalizeID lower-cases s and drops hyphens, underscores and spaces.
func normalizeID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitWords breaks s on non-alphanumerics and camel-case boundaries and
// lower-cases the parts.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// keywords returns the meaningful tokens of an id: no stopwords, no pure
// numbers, no hex-like hash fragments.
func keywords(id string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range splitWords(id) {
		if len(w) < 2 || isNumeric(w) || looksLikeHash(w) {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// looksLikeHash matches tokens of eight or more hex characters that mix in
// at least one digit.
func looksLikeHash(s string) bool {
	if len(s) < 8 {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return digits > 0
}

// inferName turns the keywords of a broken id into a title, e.g.
// "pkg-power-supply" -> "Power Supply".
func inferName(id, fallbackType string) string {
	words := keywords(id)
	if len(words) == 0 {
		return "Recovered " + fallbackType
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

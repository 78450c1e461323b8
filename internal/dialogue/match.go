package dialogue

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

func normalizeText(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// boundaryAt reports whether term sits at text[pos:] without being glued to
// a neighbouring word. Edges of the term that are not word characters need
// no check.
func boundaryAt(text string, pos int, term string) bool {
	first, _ := utf8.DecodeRuneInString(term)
	if pos > 0 && isWordRune(first) {
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if isWordRune(prev) {
			return false
		}
	}
	end := pos + len(term)
	last, _ := utf8.DecodeLastRuneInString(term)
	if end < len(text) && isWordRune(last) {
		next, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(next) {
			return false
		}
	}
	return true
}

// termPositions returns every boundary-respecting offset of term in text.
func termPositions(text, term string) []int {
	var out []int
	if term == "" {
		return out
	}
	offset := 0
	for {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return out
		}
		pos := offset + i
		if boundaryAt(text, pos, term) {
			out = append(out, pos)
		}
		offset = pos + 1
	}
}

func hasTerm(text, term string) bool {
	return len(termPositions(text, term)) > 0
}

func hasAny(text string, terms []string) bool {
	for _, t := range terms {
		if hasTerm(text, t) {
			return true
		}
	}
	return false
}

// earliestTerm returns the lowest offset at which any of terms occurs, or -1.
func earliestTerm(text string, terms []string) int {
	best := -1
	for _, t := range terms {
		if ps := termPositions(text, t); len(ps) > 0 && (best < 0 || ps[0] < best) {
			best = ps[0]
		}
	}
	return best
}

// affirms reports an affirmative term that is not directly negated,
// so "i'm not ok" does not count as consent.
func affirms(text string, terms []string) bool {
	for _, t := range terms {
		for _, pos := range termPositions(text, t) {
			before := strings.TrimRightFunc(text[:pos], unicode.IsSpace)
			if strings.HasSuffix(before, "not") || strings.HasSuffix(before, "n't") || strings.HasSuffix(before, "never") {
				continue
			}
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package dialogue

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	sentenceSplit = regexp.MustCompile(`[!?,;:\n]|\.(?:\s|$)`)
	cornerRe      = regexp.MustCompile(`\b(?:corner|intersection) of ([a-z0-9' -]+?) (?:and|&) ([a-z0-9'-]+(?: [a-z0-9'-]+)?)`)
	ampersandRe   = regexp.MustCompile(`\b([a-z0-9'-]+(?: [a-z0-9'-]+)?) ?& ?([a-z0-9'-]+(?: [a-z0-9'-]+)?)`)
	genericAreaRe = regexp.MustCompile(`\b([a-z][a-z'-]*(?: [a-z][a-z'-]*)?) (?:area|neighbourhood|neighborhood|district)\b`)
)

const maxStreetPrefix = 3

type extractor func(r *Rules, text string) *Location

// Evaluated in order; the first extractor with a result wins.
var extractors = []extractor{extractStreet, extractIntersection, extractArea, extractCity}

func (r *Rules) extractLocation(text string) *Location {
	for _, ex := range extractors {
		if loc := ex(r, text); loc != nil {
			return loc
		}
	}
	return nil
}

func sentences(text string) []string {
	return sentenceSplit.Split(text, -1)
}

func placeTokens(sentence string) []string {
	return strings.FieldsFunc(sentence, func(c rune) bool {
		return !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '\'' || c == '-')
	})
}

// extractStreet finds "<1-3 words> <suffix>", stopping at filler words so
// "i'm near 12 king st" yields "12 king st".
func extractStreet(r *Rules, text string) *Location {
	for _, s := range sentences(text) {
		tokens := placeTokens(s)
		for i := 1; i < len(tokens); i++ {
			if !contains(r.StreetSuffixes, tokens[i]) {
				continue
			}
			start := i
			for j := i - 1; j >= 0 && i-j <= maxStreetPrefix; j-- {
				if contains(r.Filler, tokens[j]) || contains(r.StreetSuffixes, tokens[j]) {
					break
				}
				start = j
			}
			if start == i {
				continue
			}
			if start > 0 && isNumber(tokens[start-1]) {
				start--
			}
			return &Location{Kind: LocationStreet, Value: strings.Join(tokens[start:i+1], " ")}
		}
	}
	return nil
}

func extractIntersection(r *Rules, text string) *Location {
	for _, re := range []*regexp.Regexp{cornerRe, ampersandRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			a := r.trimFiller(m[1])
			b := r.trimFiller(m[2])
			if a != "" && b != "" {
				return &Location{Kind: LocationIntersection, Value: a + " & " + b}
			}
		}
	}
	return nil
}

func extractArea(r *Rules, text string) *Location {
	if pos, term := firstOf(text, r.Areas); pos >= 0 {
		return &Location{Kind: LocationArea, Value: term}
	}
	for _, m := range genericAreaRe.FindAllStringSubmatch(text, -1) {
		if name := r.trimFiller(m[1]); name != "" {
			return &Location{Kind: LocationArea, Value: name}
		}
	}
	return nil
}

func extractCity(r *Rules, text string) *Location {
	if pos, term := firstOf(text, r.Cities); pos >= 0 {
		return &Location{Kind: LocationCity, Value: term}
	}
	return nil
}

// firstOf returns the configured term occurring earliest in text.
func firstOf(text string, terms []string) (int, string) {
	best, found := -1, ""
	for _, t := range terms {
		if ps := termPositions(text, t); len(ps) > 0 && (best < 0 || ps[0] < best) {
			best, found = ps[0], t
		}
	}
	return best, found
}

// trimFiller drops filler words from both ends of a phrase.
func (r *Rules) trimFiller(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 && contains(r.Filler, words[0]) {
		words = words[1:]
	}
	for len(words) > 0 && contains(r.Filler, words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}

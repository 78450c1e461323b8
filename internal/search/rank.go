package search

import (
	"regexp"
	"sort"
	"strings"

	"support-finder/internal/resource"
)

// Score constants. A hard exclusion or a candidate with no word match scores
// excludedScore; anything at or below dropThreshold never reaches the caller.
const (
	excludedScore = -1000
	dropThreshold = -500

	fullNameMatch     = 1000
	fullDescMatch     = 500
	nameWordMatch     = 200
	descWordMatch     = 100
	allWordsInName    = 300
	allWordsInDesc    = 150
	namePrefixMatch   = 150
	nameTokenPrefix   = 50
	descTokenPrefix   = 25
	verifiedBonus     = 10
	minTokenPrefixLen = 3
)

// CrisisTerms mark a query as crisis-related. Only such queries may surface
// resources in the crisis category.
var CrisisTerms = []string{
	"suicide", "suicidal", "crisis", "988", "self-harm", "self harm",
	"kill myself", "depression", "depressed", "mental health", "overdose",
	"hopeless", "panic",
}

// ShelterTerms mark a query as housing-related.
var ShelterTerms = []string{
	"shelter", "housing", "homeless", "homelessness", "evicted", "eviction",
	"place to stay", "sleep", "beds",
}

var disallowedChars = regexp.MustCompile(`[^\w\s-]`)

// Normalize trims, strips punctuation except hyphens and lowercases.
func Normalize(query string) string {
	cleaned := disallowedChars.ReplaceAllString(strings.TrimSpace(query), "")
	return strings.ToLower(strings.TrimSpace(cleaned))
}

type Classification struct {
	Crisis  bool `json:"crisis"`
	Shelter bool `json:"shelter"`
}

// Classify expects a normalized query.
func Classify(cleaned string) Classification {
	return Classification{
		Crisis:  containsAny(cleaned, CrisisTerms),
		Shelter: containsAny(cleaned, ShelterTerms),
	}
}

type scored struct {
	res   resource.Resource
	score int
	key   string
}

// Rank filters and orders candidates by relevance to query, best first.
// Crisis-category resources are excluded unless the query itself is crisis-related.
func Rank(query string, candidates []resource.Resource) []resource.Resource {
	cleaned := Normalize(query)
	if cleaned == "" || len(candidates) == 0 {
		return []resource.Resource{}
	}
	words := distinct(strings.Fields(cleaned))
	class := Classify(cleaned)

	kept := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		s := score(cleaned, words, class, &c)
		if s <= dropThreshold {
			continue
		}
		kept = append(kept, scored{res: c, score: s, key: strings.ToLower(c.Name)})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		if kept[i].key != kept[j].key {
			return kept[i].key < kept[j].key
		}
		return kept[i].res.ID < kept[j].res.ID
	})

	out := make([]resource.Resource, len(kept))
	for i, k := range kept {
		out[i] = k.res
	}
	return out
}

func score(cleaned string, words []string, class Classification, r *resource.Resource) int {
	if !class.Crisis && r.InCategory(resource.SlugCrisis) {
		return excludedScore
	}

	name := strings.ToLower(r.Name)
	desc := strings.ToLower(resource.PlainText(r.Description))
	nameTokens := strings.Fields(name)
	descTokens := strings.Fields(desc)

	total := 0
	if strings.Contains(name, cleaned) {
		total += fullNameMatch
	}
	if strings.Contains(desc, cleaned) {
		total += fullDescMatch
	}

	nameHits, descHits := 0, 0
	for _, w := range words {
		if strings.Contains(name, w) {
			nameHits++
			total += nameWordMatch
		}
		if strings.Contains(desc, w) {
			descHits++
			total += descWordMatch
		}
		if strings.HasPrefix(name, w) {
			total += namePrefixMatch
		}
		if len(w) >= minTokenPrefixLen {
			if anyHasPrefix(nameTokens, w) {
				total += nameTokenPrefix
			}
			if anyHasPrefix(descTokens, w) {
				total += descTokenPrefix
			}
		}
	}
	if nameHits == len(words) {
		total += allWordsInName
	}
	if descHits == len(words) {
		total += allWordsInDesc
	}
	if r.Verified {
		total += verifiedBonus
	}

	if nameHits == 0 && descHits == 0 {
		return excludedScore
	}
	return total
}

func anyHasPrefix(tokens []string, prefix string) bool {
	for _, t := range tokens {
		if strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func distinct(words []string) []string {
	seen := make(map[string]bool, len(words))
	out := words[:0:0]
	for _, w := range words {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}

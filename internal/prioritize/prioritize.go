package prioritize

import (
	"regexp"
	"sort"
	"strings"

	"support-finder/internal/dialogue"
	"support-finder/internal/resource"
)

// MaxResults caps every prioritized list.
const MaxResults = 5

var (
	roundTheClock = []string{"24/7", "24 hours", "24hrs", "24 hrs", "open 24"}
	mealProgram   = []string{"kitchen", "meal", "hot meal", "lunch", "dinner", "breakfast"}
	fridge        = []string{"community fridge", "fridge"}
	youthOnly     = regexp.MustCompile(`\b(?:youth|teens?|teenagers?|young adults?|young people|minors)\b`)
	// "ages 13-24", "age 16 to 24", "under 18", "12-17 year olds"
	ageRange = regexp.MustCompile(`\bages? \d{1,2} ?(?:-|–|to) ?\d{1,2}\b|\bunder (?:18|19|21|25)\b|\b\d{1,2} ?(?:-|–) ?\d{1,2} ?(?:year olds|yrs|years)\b`)
)

// Named programs that only serve young people.
var YouthPrograms = []string{"covenant house", "youth without shelter", "eva's place", "boys & girls club"}

func hasAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// IsRoundTheClock reports whether the hours text advertises 24/7 availability.
func IsRoundTheClock(r *resource.Resource) bool {
	return hasAny(strings.ToLower(r.Hours), roundTheClock)
}

// IsYouthRestricted reports whether name or description limits the resource to young people.
func IsYouthRestricted(r *resource.Resource) bool {
	text := strings.ToLower(r.Name + " " + resource.PlainText(r.Description))
	return youthOnly.MatchString(text) || hasAny(text, YouthPrograms) || ageRange.MatchString(text)
}

func isMealProgram(r *resource.Resource) bool { return hasAny(r.Text(), mealProgram) }
func isFridge(r *resource.Resource) bool      { return hasAny(r.Text(), fridge) }

// Prioritize filters and orders candidates for presentation and caps the list
// at MaxResults. isAdult nil means the age category is unknown.
func Prioritize(intent dialogue.Intent, urgency dialogue.Urgency, isAdult *bool, candidates []resource.Resource) []resource.Resource {
	out := make([]resource.Resource, 0, len(candidates))
	for _, c := range candidates {
		if isAdult != nil && *isAdult && IsYouthRestricted(&c) {
			continue
		}
		out = append(out, c)
	}

	switch intent {
	case dialogue.IntentShelter:
		sortShelter(out, urgency)
	case dialogue.IntentFood:
		if urgency == dialogue.UrgencyImmediate || urgency == dialogue.UrgencySoon {
			sortFood(out)
		}
	}

	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

func sortShelter(rs []resource.Resource, urgency dialogue.Urgency) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := &rs[i], &rs[j]
		if ac, bc := IsRoundTheClock(a), IsRoundTheClock(b); ac != bc {
			return ac
		}
		if urgency == dialogue.UrgencyImmediate && a.Verified != b.Verified {
			return a.Verified
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

// foodKeys are compared in order; a resource with the earlier key set wins.
func foodKeys(r *resource.Resource) [4]bool {
	return [4]bool{IsRoundTheClock(r), isMealProgram(r), isFridge(r), r.Verified}
}

func sortFood(rs []resource.Resource) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := foodKeys(&rs[i]), foodKeys(&rs[j])
		for k := range a {
			if a[k] != b[k] {
				return a[k]
			}
		}
		return false
	})
}

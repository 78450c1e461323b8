package dialogue

// IntentRule maps a keyword group to an intent. Rules are evaluated in slice
// order and the first group with a hit wins.
type IntentRule struct {
	Intent Intent
	Terms  []string
}

// Rules holds every keyword table the inferrer consults. All terms are
// lowercase and match on word boundaries.
type Rules struct {
	Intents     []IntentRule
	HelpSeeking []string

	Immediate []string
	Soon      []string

	Crisis []string

	Adult []string
	Youth []string
	// Ages at or above AdultAge count as adult, below as youth.
	AdultAge int

	Affirmative []string
	Negation    []string

	PermissionPrompts   []string
	LocationPrompts     []string
	ConfirmationPrompts []string

	StreetSuffixes []string
	Areas          []string
	Cities         []string
	// Filler words are trimmed from the edges of extracted place names.
	Filler []string
}

var crisisTerms = []string{
	"suicide", "suicidal", "kill myself", "end my life", "want to die",
	"self-harm", "self harm", "hurt myself", "hurting myself", "cutting myself",
	"crisis", "overdose", "overdosing", "988", "no reason to live", "hopeless",
}

// DefaultRules returns a fresh copy of the built-in tables.
func DefaultRules() Rules {
	return Rules{
		Intents: []IntentRule{
			{IntentFood, []string{
				"hungry", "starving", "food", "eat", "eaten", "meal", "meals",
				"groceries", "grocery", "pantry", "food bank", "lunch", "dinner", "breakfast",
			}},
			{IntentShelter, []string{
				"shelter", "homeless", "housing", "place to stay", "place to sleep",
				"nowhere to sleep", "nowhere to stay", "somewhere to sleep", "evicted", "eviction",
				"kicked out", "sleeping outside", "sleep outside", "bed for tonight", "on the street",
			}},
			{IntentHealth, []string{
				"doctor", "clinic", "sick", "medical", "medicine", "medication", "prescription",
				"health", "nurse", "hospital", "injured", "dentist", "pregnant",
			}},
			{IntentCrisis, crisisTerms},
			{IntentLegal, []string{
				"lawyer", "legal", "court", "my rights", "landlord", "immigration",
				"arrested", "tenant", "custody",
			}},
			{IntentYouth, []string{
				"youth", "teen", "teens", "teenager", "young person", "youth program", "drop-in",
			}},
		},
		HelpSeeking: []string{
			"help", "need", "looking for", "support", "assistance", "where can i",
			"resources", "services", "struggling",
		},
		Immediate: []string{
			"hungry now", "starving", "right now", "tonight", "freezing", "nowhere to sleep",
			"haven't eaten", "havent eaten", "no food", "nothing to eat", "immediately", "urgent",
			"emergency", "asap", "today", "sleeping outside", "on the street",
		},
		Soon: []string{
			"tomorrow", "this week", "soon", "in a few days", "running out", "next week",
			"end of the month", "this weekend",
		},
		Crisis: crisisTerms,
		Adult: []string{
			"adult", "i'm an adult", "senior", "retired", "my kids", "my children",
			"my husband", "my wife",
		},
		Youth: []string{
			"young adult", "teen", "teenager", "minor", "high school", "in school",
			"my parents", "my mom kicked me out", "my dad kicked me out", "youth",
		},
		AdultAge: 25,
		Affirmative: []string{
			"yes", "yeah", "yea", "yep", "yup", "sure", "ok", "okay", "alright",
			"go ahead", "please do", "of course", "definitely", "absolutely",
			"sounds good", "that would help", "i would", "i'd like that",
		},
		Negation: []string{
			"no", "nope", "nah", "not now", "not really", "don't", "do not", "no thanks",
		},
		PermissionPrompts: []string{
			"would you like", "can i", "may i", "permission", "is it ok if", "is it okay if",
			"do you want me to", "shall i",
		},
		LocationPrompts: []string{
			"where are you", "your location", "what area", "which area", "what neighbourhood",
			"what neighborhood", "nearest intersection", "cross street", "what city",
			"where you are", "close to you",
		},
		ConfirmationPrompts: []string{
			"is that right", "did you mean", "to confirm", "is that correct",
		},
		StreetSuffixes: []string{
			"street", "st", "avenue", "ave", "road", "rd", "boulevard", "blvd",
			"drive", "lane", "parkway", "highway",
		},
		Areas: []string{
			"downtown", "midtown", "uptown", "east end", "west end", "north end",
			"south end", "chinatown", "old town",
		},
		Filler: []string{
			"i", "i'm", "im", "am", "is", "it's", "at", "on", "near", "by", "the", "a",
			"in", "around", "off", "to", "of", "from", "and", "now", "close", "live",
			"living", "stay", "staying", "corner", "intersection", "my", "this", "that",
			"your", "our", "here", "right", "just", "outside",
		},
	}
}

// WithPlaces returns a copy of r with extra areas and cities appended.
func (r Rules) WithPlaces(areas, cities []string) Rules {
	r.Areas = append(append([]string(nil), r.Areas...), lowerAll(areas)...)
	r.Cities = append(append([]string(nil), r.Cities...), lowerAll(cities)...)
	return r
}

package dialogue

import (
	"regexp"
	"strconv"
	"strings"
)

// "i'm 19", "aged 30", "17 years old"
var ageRe = regexp.MustCompile(`\b(?:i'm|im|i am|age|aged) (\d{1,2})\b|\b(\d{1,2}) ?(?:years old|year old|yrs old|y/o|yo)\b`)

// Units that turn "i'm 5" into a distance or duration rather than an age.
var notAgeUnits = []string{"minutes", "mins", "min", "blocks", "block", "km", "miles", "mile", "hours", "hrs", "hour", "away", "dollars", "bucks"}

// Inferrer projects a transcript onto a State using a fixed set of rules.
type Inferrer struct {
	rules Rules
}

func NewInferrer(rules Rules) *Inferrer {
	return &Inferrer{rules: rules}
}

var defaultInferrer = NewInferrer(DefaultRules())

// Infer uses DefaultRules.
func Infer(messages []Message) State {
	return defaultInferrer.Infer(messages)
}

type transcript struct {
	msgs            []Message // normalized content
	users           []string
	latestUser      string
	latestAssistant string
}

func newTranscript(messages []Message) transcript {
	var t transcript
	for _, m := range messages {
		nm := Message{Role: m.Role, Content: normalizeText(m.Content)}
		t.msgs = append(t.msgs, nm)
		switch m.Role {
		case RoleUser:
			t.users = append(t.users, nm.Content)
			t.latestUser = nm.Content
		case RoleAssistant:
			t.latestAssistant = nm.Content
		}
	}
	return t
}

// Infer is pure: the same transcript always yields the same State.
// Intent, urgency, crisis and age signals read user messages only so the
// assistant's own wording never feeds back into classification.
func (in *Inferrer) Infer(messages []Message) State {
	t := newTranscript(messages)
	userText := strings.Join(t.users, "\n")

	st := State{
		Intent:   in.intent(userText),
		IsCrisis: hasAny(userText, in.rules.Crisis),
		IsAdult:  in.ageCategory(t.users),
		Awaiting: AwaitingNone,
	}
	if st.Intent == IntentFood || st.Intent == IntentShelter {
		st.Urgency = in.urgency(userText)
	}
	st.PermissionGranted = in.permission(t)
	st.Location = in.location(t.users)
	st.Awaiting = in.awaiting(t.latestAssistant, st)
	return st
}

func (in *Inferrer) intent(text string) Intent {
	for _, rule := range in.rules.Intents {
		if hasAny(text, rule.Terms) {
			return rule.Intent
		}
	}
	if hasAny(text, in.rules.HelpSeeking) {
		return IntentUnknown
	}
	return IntentNone
}

func (in *Inferrer) urgency(text string) Urgency {
	switch {
	case hasAny(text, in.rules.Immediate):
		return UrgencyImmediate
	case hasAny(text, in.rules.Soon):
		return UrgencySoon
	default:
		return UrgencyGeneral
	}
}

// ageCategory walks user messages in order; within the first message carrying
// any signal, the signal at the lowest offset decides.
func (in *Inferrer) ageCategory(users []string) *bool {
	for _, text := range users {
		adultPos := earliestTerm(text, in.rules.Adult)
		youthPos := earliestTerm(text, in.rules.Youth)
		agePos, age := firstAge(text)

		type signal struct {
			pos   int
			adult bool
		}
		var best *signal
		consider := func(pos int, adult bool) {
			if pos >= 0 && (best == nil || pos < best.pos) {
				best = &signal{pos: pos, adult: adult}
			}
		}
		consider(youthPos, false)
		consider(adultPos, true)
		if agePos >= 0 {
			consider(agePos, age >= in.rules.AdultAge)
		}
		if best != nil {
			adult := best.adult
			return &adult
		}
	}
	return nil
}

func firstAge(text string) (int, int) {
	for _, m := range ageRe.FindAllStringSubmatchIndex(text, -1) {
		var digits string
		isStatement := m[2] >= 0
		if isStatement {
			digits = text[m[2]:m[3]]
			rest := strings.Fields(text[m[1]:])
			if len(rest) > 0 && contains(notAgeUnits, strings.Trim(rest[0], ".,!?")) {
				continue
			}
		} else {
			digits = text[m[4]:m[5]]
		}
		age, err := strconv.Atoi(digits)
		if err != nil || age < 10 {
			continue
		}
		return m[0], age
	}
	return -1, 0
}

// permission is withdrawn by any negation in the latest user message and
// otherwise granted by an affirmative in any user message. An affirmative that
// is itself negated ("i'm not ok") does not count.
func (in *Inferrer) permission(t transcript) bool {
	if hasAny(t.latestUser, in.rules.Negation) {
		return false
	}
	for _, u := range t.users {
		if affirms(u, in.rules.Affirmative) {
			return true
		}
	}
	return false
}

// location prefers the most recent user message that names a place.
func (in *Inferrer) location(users []string) *Location {
	for i := len(users) - 1; i >= 0; i-- {
		if loc := in.rules.extractLocation(users[i]); loc != nil {
			return loc
		}
	}
	return nil
}

func (in *Inferrer) awaiting(latestAssistant string, st State) Awaiting {
	if latestAssistant == "" {
		return AwaitingNone
	}
	switch {
	case !st.PermissionGranted && hasAny(latestAssistant, in.rules.PermissionPrompts):
		return AwaitingPermission
	case !st.HasLocation() && hasAny(latestAssistant, in.rules.LocationPrompts):
		return AwaitingLocation
	case hasAny(latestAssistant, in.rules.ConfirmationPrompts):
		return AwaitingConfirmation
	default:
		return AwaitingNone
	}
}

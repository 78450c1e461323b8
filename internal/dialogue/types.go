// Package dialogue derives conversation state from a transcript and picks the
// assistant's next action. Nothing here is stored: every turn recomputes the
// state from the full message list.
package dialogue

type Intent string

const (
	IntentFood    Intent = "food"
	IntentShelter Intent = "shelter"
	IntentHealth  Intent = "health"
	IntentCrisis  Intent = "crisis"
	IntentLegal   Intent = "legal"
	IntentYouth   Intent = "youth"
	IntentUnknown Intent = "unknown"
	IntentNone    Intent = "none"
)

// Structured reports whether the intent names a concrete need.
func (i Intent) Structured() bool {
	return i != IntentNone && i != IntentUnknown && i != ""
}

type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyGeneral   Urgency = "general"
)

type Awaiting string

const (
	AwaitingPermission   Awaiting = "permission"
	AwaitingLocation     Awaiting = "location"
	AwaitingConfirmation Awaiting = "confirmation"
	AwaitingNone         Awaiting = "none"
)

type LocationKind string

const (
	LocationStreet       LocationKind = "street"
	LocationIntersection LocationKind = "intersection"
	LocationArea         LocationKind = "area"
	LocationCity         LocationKind = "city"
)

type Location struct {
	Kind  LocationKind `json:"kind"`
	Value string       `json:"value"`
}

// State is the projection of a transcript. Urgency is empty unless the intent
// is food or shelter; IsAdult is nil when no age signal was seen.
type State struct {
	Intent            Intent    `json:"intent"`
	Urgency           Urgency   `json:"urgency,omitempty"`
	IsCrisis          bool      `json:"is_crisis"`
	IsAdult           *bool     `json:"is_adult,omitempty"`
	PermissionGranted bool      `json:"permission_granted"`
	Location          *Location `json:"location,omitempty"`
	Awaiting          Awaiting  `json:"awaiting"`
}

func (s State) HasLocation() bool {
	return s.Location != nil && s.Location.Value != ""
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Action string

const (
	ActionAskPermission  Action = "ask_permission"
	ActionAskLocation    Action = "ask_location"
	ActionFetchResources Action = "fetch_resources"
	ActionPresentOptions Action = "present_options"
)

// Actions lists every value Decide can return.
var Actions = []Action{ActionAskPermission, ActionAskLocation, ActionFetchResources, ActionPresentOptions}

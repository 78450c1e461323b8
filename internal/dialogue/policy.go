package dialogue

// policyRule is one row of the action table.
type policyRule struct {
	name   string
	when   func(State) bool
	action Action
}

// Order matters: the first rule whose predicate holds decides.
var policy = []policyRule{
	{
		// Crisis needs explicit consent before anything is offered.
		name:   "crisis-consent",
		when:   func(s State) bool { return s.IsCrisis && !s.PermissionGranted && s.Awaiting != AwaitingPermission },
		action: ActionAskPermission,
	},
	{
		name:   "consent",
		when:   func(s State) bool { return s.Intent.Structured() && !s.PermissionGranted && s.Awaiting != AwaitingPermission },
		action: ActionAskPermission,
	},
	{
		name: "location",
		when: func(s State) bool {
			return s.Intent.Structured() && s.Intent != IntentCrisis && s.PermissionGranted &&
				!s.HasLocation() && s.Awaiting != AwaitingLocation
		},
		action: ActionAskLocation,
	},
	{
		// Crisis support does not wait for a location.
		name: "fetch",
		when: func(s State) bool {
			return s.Intent.Structured() && s.PermissionGranted && (s.HasLocation() || s.Intent == IntentCrisis)
		},
		action: ActionFetchResources,
	},
}

// Decide returns the single next action for st. It is total: anything no rule
// claims falls back to present_options.
func Decide(st State) Action {
	action, _ := DecideWithRule(st)
	return action
}

// DecideWithRule also names the rule that fired, for logging.
func DecideWithRule(st State) (Action, string) {
	for _, r := range policy {
		if r.when(st) {
			return r.action, r.name
		}
	}
	return ActionPresentOptions, "fallback"
}

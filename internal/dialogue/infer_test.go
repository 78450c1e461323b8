package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func user(s string) Message      { return Message{Role: RoleUser, Content: s} }
func assistant(s string) Message { return Message{Role: RoleAssistant, Content: s} }

func TestInfer_HungryNowScenario(t *testing.T) {
	msgs := []Message{
		user("I'm hungry now"),
		assistant("I'm sorry you're going through that. Would you like me to look for places that can help?"),
		user("yes"),
	}
	st := Infer(msgs)
	assert.Equal(t, IntentFood, st.Intent)
	assert.Equal(t, UrgencyImmediate, st.Urgency)
	assert.True(t, st.PermissionGranted)
	assert.False(t, st.IsCrisis)
	assert.Nil(t, st.Location)
	assert.Equal(t, ActionAskLocation, Decide(st))

	msgs = append(msgs,
		assistant("Where are you right now? A street or nearest intersection works."),
		user("I'm at 123 Main Street"),
	)
	st = Infer(msgs)
	require.NotNil(t, st.Location)
	assert.Equal(t, Location{Kind: LocationStreet, Value: "123 main street"}, *st.Location)
	assert.True(t, st.PermissionGranted)
	assert.Equal(t, AwaitingNone, st.Awaiting)
	assert.Equal(t, ActionFetchResources, Decide(st))
}

func TestInfer_Idempotent(t *testing.T) {
	msgs := []Message{
		user("I'm 17 and got kicked out, nowhere to sleep tonight"),
		assistant("Would you like me to find a shelter?"),
		user("ok"),
	}
	assert.Equal(t, Infer(msgs), Infer(msgs))
}

func TestInfer_IntentPriority(t *testing.T) {
	tests := []struct {
		text string
		want Intent
	}{
		{"I need food and a place to stay", IntentFood},
		{"I got evicted", IntentShelter},
		{"I need a doctor", IntentHealth},
		{"I want to die", IntentCrisis},
		{"my landlord is threatening me", IntentLegal},
		{"is there a teen drop-in", IntentYouth},
		{"I need some help", IntentUnknown},
		{"hello there", IntentNone},
		{"it's a great day", IntentNone}, // "eat" inside "great" is not a hit
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Infer([]Message{user(tt.text)}).Intent, tt.text)
	}
}

func TestInfer_UrgencyOnlyForFoodAndShelter(t *testing.T) {
	assert.Equal(t, UrgencySoon, Infer([]Message{user("we'll run out of groceries this week")}).Urgency)
	assert.Equal(t, UrgencyGeneral, Infer([]Message{user("looking for a food bank")}).Urgency)
	assert.Equal(t, UrgencyImmediate, Infer([]Message{user("it's freezing and I'm homeless")}).Urgency)
	assert.Equal(t, Urgency(""), Infer([]Message{user("I need a doctor right now")}).Urgency)
}

func TestInfer_CrisisFlagIndependentOfIntent(t *testing.T) {
	st := Infer([]Message{user("I'm hungry and I feel hopeless")})
	assert.Equal(t, IntentFood, st.Intent)
	assert.True(t, st.IsCrisis)
	assert.Equal(t, ActionAskPermission, Decide(st))
}

func TestInfer_AssistantTextDoesNotSetIntent(t *testing.T) {
	st := Infer([]Message{
		user("hi"),
		assistant("I can help with food, shelter, or crisis support."),
	})
	assert.Equal(t, IntentNone, st.Intent)
	assert.False(t, st.IsCrisis)
}

func TestInfer_Age(t *testing.T) {
	tests := []struct {
		msgs []Message
		want *bool
	}{
		{[]Message{user("I'm 19 and need a shelter")}, boolPtr(false)},
		{[]Message{user("I am 42")}, boolPtr(true)},
		{[]Message{user("I'm 30 years old")}, boolPtr(true)},
		{[]Message{user("I'm a young adult")}, boolPtr(false)},
		{[]Message{user("I'm an adult with my kids")}, boolPtr(true)},
		{[]Message{user("I'm 5 minutes from the station")}, nil},
		{[]Message{user("need food")}, nil},
		// the first message carrying a signal decides
		{[]Message{user("I'm a teen"), user("well, 26 years old actually")}, boolPtr(false)},
	}
	for _, tt := range tests {
		got := Infer(tt.msgs).IsAdult
		if tt.want == nil {
			assert.Nil(t, got, tt.msgs[0].Content)
			continue
		}
		require.NotNil(t, got, tt.msgs[0].Content)
		assert.Equal(t, *tt.want, *got, tt.msgs[0].Content)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestInfer_WithdrawnConsentAsksAgain(t *testing.T) {
	st := Infer([]Message{
		user("I'm hungry now"),
		assistant("Would you like me to share some options?"),
		user("yes"),
		assistant("Where are you right now?"),
		user("actually I don't want that anymore"),
	})
	assert.False(t, st.PermissionGranted)
	assert.Equal(t, ActionAskPermission, Decide(st))
}

func TestInfer_Permission(t *testing.T) {
	ask := assistant("Would you like me to share some options?")
	tests := []struct {
		name string
		msgs []Message
		want bool
	}{
		{"no reply yet", []Message{user("I'm hungry"), ask}, false},
		{"yes to prompt", []Message{user("I'm hungry"), ask, user("yes please")}, true},
		{"affirmative mid-sentence after prompt", []Message{user("I'm hungry"), ask, user("that would help a lot")}, true},
		{"negated affirmative", []Message{user("I'm hungry"), ask, user("i'm not ok with that")}, false},
		{"refusal", []Message{user("I'm hungry"), ask, user("no thanks")}, false},
		{"earlier consent survives", []Message{user("hungry"), ask, user("sure"), assistant("Where are you?"), user("near 5 king st")}, true},
		{"later refusal withdraws", []Message{user("hungry"), ask, user("sure"), ask, user("no")}, false},
		{"negation anywhere in the latest message withdraws", []Message{user("I'm hungry now"), ask, user("yes"), assistant("Where are you right now?"), user("actually I don't want that anymore")}, false},
		{"negated ok is not consent", []Message{user("I'm not ok, I need food")}, false},
		{"opens with yes", []Message{user("Yes, I need a shelter")}, true},
		{"affirmative mid-sentence without a prompt", []Message{user("I need food, sure go ahead and look")}, true},
		{"affirmative earlier in the transcript", []Message{user("I'm hungry, ok?"), user("I'm downtown")}, true},
		{"negation in a later message overrides earlier consent", []Message{user("yes"), user("no food since monday")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Infer(tt.msgs).PermissionGranted)
		})
	}
}

func TestInfer_Awaiting(t *testing.T) {
	st := Infer([]Message{user("I'm hungry"), assistant("Can I share some places nearby?")})
	assert.Equal(t, AwaitingPermission, st.Awaiting)
	assert.Equal(t, ActionPresentOptions, Decide(st))

	st = Infer([]Message{user("I'm hungry"), assistant("Would you like help?"), user("yes"), assistant("What area are you in?")})
	assert.Equal(t, AwaitingLocation, st.Awaiting)

	st = Infer([]Message{user("shelter please, downtown"), assistant("You said downtown, is that right?")})
	assert.Equal(t, AwaitingConfirmation, st.Awaiting)

	st = Infer([]Message{user("hello")})
	assert.Equal(t, AwaitingNone, st.Awaiting)
}

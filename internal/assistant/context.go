package assistant

import (
	"fmt"
	"strings"

	"support-finder/internal/chat"
	"support-finder/internal/dialogue"
	"support-finder/internal/llm"
	"support-finder/internal/resource"
)

const SystemPrompt = `You are a calm, respectful assistant that helps people find community support services.
Ask at most one question per reply. Keep replies short and plain.
Never invent services, addresses, phone numbers or opening hours.`

const maxDescriptionChars = 200

var intentLabels = map[dialogue.Intent]string{
	dialogue.IntentFood:    "food",
	dialogue.IntentShelter: "shelter",
	dialogue.IntentHealth:  "health care",
	dialogue.IntentCrisis:  "crisis support",
	dialogue.IntentLegal:   "legal help",
	dialogue.IntentYouth:   "youth",
}

func intentLabel(i dialogue.Intent) string {
	if l, ok := intentLabels[i]; ok {
		return l
	}
	return "support"
}

// BuildInstructions turns the policy decision into the instruction block the
// completion service works from. It makes no decisions of its own.
func BuildInstructions(t *Turn) string {
	var b strings.Builder
	b.WriteString("Known so far: ")
	b.WriteString(describeState(t.State))
	b.WriteString("\n\n")

	switch t.Action {
	case dialogue.ActionAskPermission:
		if t.State.IsCrisis {
			b.WriteString("The person may be in crisis. Respond with warmth and without judgement. ")
			b.WriteString("Ask one short question: would they like you to share crisis support contacts. ")
			b.WriteString("Do not list any services yet. If they may be in immediate danger, tell them to call 911 or 988.")
		} else {
			fmt.Fprintf(&b, "Acknowledge their need for %s. ", intentLabel(t.State.Intent))
			fmt.Fprintf(&b, "Ask one short question: would they like you to look for %s services. ", intentLabel(t.State.Intent))
			b.WriteString("Do not list any services yet.")
		}
	case dialogue.ActionAskLocation:
		b.WriteString("Ask one short question about where they are: a street, the nearest intersection, a neighbourhood or a city. ")
		b.WriteString("Do not list any services yet.")
	case dialogue.ActionFetchResources:
		if len(t.Resources) == 0 {
			b.WriteString("No matching services were found. Say so honestly and suggest calling 211 for more options.")
			break
		}
		b.WriteString("Share these services in this order. Use only the details given here.\n")
		b.WriteString(DescribeResources(t.Resources))
	default:
		b.WriteString("Briefly explain that you can help find food, shelter, health care, legal help, youth services or crisis support. ")
		b.WriteString("Ask which one they need. Ask only one question.")
	}
	return b.String()
}

func describeState(st dialogue.State) string {
	parts := []string{"need=" + string(st.Intent)}
	if st.Urgency != "" {
		parts = append(parts, "urgency="+string(st.Urgency))
	}
	if st.IsCrisis {
		parts = append(parts, "crisis=yes")
	}
	if st.IsAdult != nil {
		if *st.IsAdult {
			parts = append(parts, "age=adult")
		} else {
			parts = append(parts, "age=youth")
		}
	}
	if st.HasLocation() {
		parts = append(parts, fmt.Sprintf("location=%s (%s)", st.Location.Value, st.Location.Kind))
	}
	return strings.Join(parts, ", ")
}

// DescribeResources renders a numbered plain-text list.
func DescribeResources(rs []resource.Resource) string {
	var b strings.Builder
	for i, r := range rs {
		fmt.Fprintf(&b, "%d. %s", i+1, r.Name)
		for _, field := range []struct{ label, value string }{
			{"address", r.Address},
			{"phone", r.Phone},
			{"hours", r.Hours},
			{"website", r.Website},
		} {
			if v := strings.TrimSpace(field.value); v != "" {
				fmt.Fprintf(&b, "; %s: %s", field.label, v)
			}
		}
		if desc := truncate(resource.PlainText(r.Description), maxDescriptionChars); desc != "" {
			fmt.Fprintf(&b, "; %s", desc)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}

// BuildCompletionMessages assembles system prompt, instructions and the
// transcript window that fits contextSize.
func BuildCompletionMessages(t *Turn, contextSize int) []llm.Message {
	out := []llm.Message{{Role: llm.RoleSystem, Content: SystemPrompt + "\n\n" + t.Instructions}}
	for _, m := range chat.BuildSlidingWindow(t.History, contextSize) {
		role := llm.RoleUser
		if m.Role == chat.RoleAssistant {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

package assistant

import (
	"fmt"
	"strings"

	"support-finder/internal/dialogue"
)

// FallbackReply is the locally computed answer used when the completion
// service is unavailable or a stream breaks off.
func FallbackReply(t *Turn) string {
	switch t.Action {
	case dialogue.ActionAskPermission:
		if t.State.IsCrisis {
			return "I'm really sorry you're going through this. Would you like me to share some crisis support contacts? " +
				"If you are in immediate danger, please call 911 or 988."
		}
		return fmt.Sprintf("I can look for %s services that might help. Would you like me to do that?", intentLabel(t.State.Intent))
	case dialogue.ActionAskLocation:
		return "Where are you right now? A street, the nearest intersection, or your neighbourhood is enough."
	case dialogue.ActionFetchResources:
		if len(t.Resources) == 0 {
			return "I couldn't find a matching service right now. You can call 211 to talk to someone about more options."
		}
		return "Here are some places that may help:\n" + strings.TrimRight(DescribeResources(t.Resources), "\n")
	default:
		return "I can help you find food, shelter, health care, legal help, youth services, or crisis support. What do you need most right now?"
	}
}

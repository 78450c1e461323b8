package assistant

import (
	"context"
	"strings"

	"support-finder/internal/apperrors"
	"support-finder/internal/chat"
	"support-finder/internal/dialogue"
	"support-finder/internal/logger"
	"support-finder/internal/metrics"
	"support-finder/internal/resource"
)

// TranscriptStore is the part of chat.Store a turn needs.
type TranscriptStore interface {
	GetMessages(ctx context.Context, chatID uint, limit int) ([]chat.Message, error)
	AppendMessage(ctx context.Context, chatID uint, role, content string) (*chat.Message, error)
	AppendReply(ctx context.Context, chatID uint, r chat.Reply) (*chat.Message, error)
}

// ResourceFetcher supplies prioritized resources for a state.
type ResourceFetcher interface {
	FetchPrioritized(ctx context.Context, st dialogue.State) ([]resource.Resource, error)
}

// Turn is the outcome of one user message: what the assistant may do next and
// the context it should say it with.
type Turn struct {
	ChatID       uint                `json:"chat_id"`
	Action       dialogue.Action     `json:"action"`
	Rule         string              `json:"-"`
	State        dialogue.State      `json:"state"`
	Resources    []resource.Resource `json:"resources"`
	Instructions string              `json:"-"`
	History      []chat.Message      `json:"-"`
}

func (t *Turn) ResourceIDs() []uint {
	ids := make([]uint, len(t.Resources))
	for i, r := range t.Resources {
		ids[i] = r.ID
	}
	return ids
}

type Engine struct {
	transcripts  TranscriptStore
	fetcher      ResourceFetcher
	inferrer     *dialogue.Inferrer
	historyLimit int
	log          logger.Logger
}

func NewEngine(transcripts TranscriptStore, fetcher ResourceFetcher, inferrer *dialogue.Inferrer, historyLimit int, log logger.Logger) *Engine {
	if inferrer == nil {
		inferrer = dialogue.NewInferrer(dialogue.DefaultRules())
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{
		transcripts:  transcripts,
		fetcher:      fetcher,
		inferrer:     inferrer,
		historyLimit: historyLimit,
		log:          log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

// NextTurn commits the user's message, then reads the transcript back and
// derives state and action from that snapshot.
func (e *Engine) NextTurn(ctx context.Context, chatID uint, userText string) (*Turn, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, apperrors.InvalidInput("message is empty", "")
	}
	if _, err := e.transcripts.AppendMessage(ctx, chatID, chat.RoleUser, userText); err != nil {
		return nil, err
	}
	history, err := e.transcripts.GetMessages(ctx, chatID, e.historyLimit)
	if err != nil {
		return nil, err
	}

	msgs := make([]dialogue.Message, len(history))
	for i, m := range history {
		msgs[i] = dialogue.Message{Role: m.Role, Content: m.Content}
	}
	st := e.inferrer.Infer(msgs)
	action, rule := dialogue.DecideWithRule(st)
	metrics.DialogueActions.WithLabelValues(string(action)).Inc()

	turn := &Turn{
		ChatID:    chatID,
		Action:    action,
		Rule:      rule,
		State:     st,
		Resources: []resource.Resource{},
		History:   history,
	}
	if action == dialogue.ActionFetchResources {
		rs, err := e.fetcher.FetchPrioritized(ctx, st)
		if err != nil {
			// The reply still goes out; it just says nothing matched.
			e.log.Error("fetching resources failed", map[string]interface{}{"chat_id": chatID, "intent": string(st.Intent), "error": err})
		} else {
			turn.Resources = rs
		}
	}
	turn.Instructions = BuildInstructions(turn)

	e.log.Info("turn decided", map[string]interface{}{
		"chat_id":   chatID,
		"intent":    string(st.Intent),
		"urgency":   string(st.Urgency),
		"crisis":    st.IsCrisis,
		"awaiting":  string(st.Awaiting),
		"action":    string(action),
		"rule":      rule,
		"resources": len(turn.Resources),
	})
	return turn, nil
}

package assistant

import (
	"context"
	"sync"

	"support-finder/internal/chat"
	"support-finder/internal/dialogue"
	"support-finder/internal/llm"
	"support-finder/internal/resource"
)

type memTranscripts struct {
	mu     sync.Mutex
	nextID uint
	msgs   map[uint][]chat.Message
}

func newMemTranscripts() *memTranscripts {
	return &memTranscripts{msgs: map[uint][]chat.Message{}}
}

func (m *memTranscripts) GetMessages(ctx context.Context, chatID uint, limit int) ([]chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.msgs[chatID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]chat.Message(nil), all...), nil
}

func (m *memTranscripts) AppendMessage(ctx context.Context, chatID uint, role, content string) (*chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	msg := chat.Message{ID: m.nextID, ChatID: chatID, Role: role, Content: content}
	m.msgs[chatID] = append(m.msgs[chatID], msg)
	return &msg, nil
}

func (m *memTranscripts) AppendReply(ctx context.Context, chatID uint, r chat.Reply) (*chat.Message, error) {
	msg, _ := m.AppendMessage(ctx, chatID, chat.RoleAssistant, r.Content)
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := &m.msgs[chatID][len(m.msgs[chatID])-1]
	stored.Action = r.Action
	stored.Fallback = r.Fallback
	msg.Action, msg.Fallback = r.Action, r.Fallback
	return msg, nil
}

func (m *memTranscripts) count(chatID uint) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs[chatID])
}

func (m *memTranscripts) last(chatID uint) chat.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.msgs[chatID]
	return all[len(all)-1]
}

type stubFetcher struct {
	resources []resource.Resource
	err       error
	seen      []dialogue.State
}

func (s *stubFetcher) FetchPrioritized(ctx context.Context, st dialogue.State) ([]resource.Resource, error) {
	s.seen = append(s.seen, st)
	return s.resources, s.err
}

type stubCompleter struct {
	tokens   []string
	err      error
	received [][]llm.Message
	// cancel, when set, runs after the first token is delivered.
	cancel func()
}

func (s *stubCompleter) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	s.received = append(s.received, messages)
	if s.err != nil {
		return "", s.err
	}
	out := ""
	for _, t := range s.tokens {
		out += t
	}
	return out, nil
}

func (s *stubCompleter) Stream(ctx context.Context, messages []llm.Message, onToken func(string) error) (string, error) {
	s.received = append(s.received, messages)
	out := ""
	for i, t := range s.tokens {
		if err := onToken(t); err != nil {
			return out, err
		}
		out += t
		if i == 0 && s.cancel != nil {
			s.cancel()
			return out, ctx.Err()
		}
	}
	return out, s.err
}

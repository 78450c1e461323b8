package api

import (
	"context"
	"errors"
	"sync"

	"support-finder/internal/apperrors"
	"support-finder/internal/logger"
)

// turnCanceller holds the cancel func of the turn in flight, if any.
type turnCanceller struct {
	mu sync.Mutex
	fn context.CancelFunc
}

func (t *turnCanceller) set(fn context.CancelFunc) {
	t.mu.Lock()
	t.fn = fn
	t.mu.Unlock()
}

func (t *turnCanceller) cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fn != nil {
		t.fn()
	}
}

// streamTurn runs one turn and relays the reply token by token. Tokens already
// sent stay sent; a failed upstream stream is completed with the fallback text.
func streamTurn(ctx context.Context, conn *safeWSConn, svc *Services, chatID uint, prompt string, log logger.Logger) {
	turn, err := svc.Engine.NextTurn(ctx, chatID, prompt)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidInput) {
			conn.writeError("missing prompt")
			return
		}
		log.Error("turn failed", map[string]interface{}{"error": err})
		conn.writeError("failed to process message")
		return
	}

	if err := conn.WriteJSON(WSTurnEvent{
		Event:     wsEventTurn,
		Action:    turn.Action,
		State:     turn.State,
		Resources: turn.Resources,
	}); err != nil {
		return
	}

	index := 0
	reply, err := svc.Responder.Respond(ctx, turn, func(token string) error {
		index++
		return conn.WriteJSON(WSChatToken{Event: wsEventToken, Token: token, Index: index})
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Info("reply stopped", map[string]interface{}{"tokens": index})
			_ = conn.WriteJSON(map[string]string{"event": wsEventStopped})
			return
		}
		log.Error("reply failed", map[string]interface{}{"error": err})
		conn.writeError("failed to deliver reply")
		return
	}

	end := WSEndEvent{Event: wsEventEnd, Content: reply.Content, Fallback: reply.Fallback}
	if reply.Message != nil {
		end.MessageID = reply.Message.ID
	}
	_ = conn.WriteJSON(end)
}

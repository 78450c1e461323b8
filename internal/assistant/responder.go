package assistant

import (
	"context"
	"errors"
	"strings"

	"support-finder/internal/apperrors"
	"support-finder/internal/chat"
	"support-finder/internal/llm"
	"support-finder/internal/logger"
	"support-finder/internal/metrics"
)

// Reply is what was said for a turn and how it was stored.
type Reply struct {
	Content  string        `json:"content"`
	Fallback bool          `json:"fallback"`
	Message  *chat.Message `json:"message"`
}

// Responder produces and persists the assistant's reply for a Turn.
type Responder struct {
	completer   llm.Completer
	transcripts TranscriptStore
	contextSize int
	log         logger.Logger
}

func NewResponder(completer llm.Completer, transcripts TranscriptStore, contextSize int, log logger.Logger) *Responder {
	if log == nil {
		log = logger.NewNop()
	}
	return &Responder{
		completer:   completer,
		transcripts: transcripts,
		contextSize: contextSize,
		log:         log.WithFields(map[string]interface{}{"component": "responder"}),
	}
}

// Respond generates the reply. With a nil onToken the completion is requested
// in one piece; otherwise tokens are streamed through onToken as they arrive.
//
// Text already delivered is never taken back. When the service fails the
// local fallback is appended and delivered, and the stored message is marked
// as a fallback. When ctx is cancelled or onToken fails the caller is gone:
// nothing is stored and the error is returned.
func (r *Responder) Respond(ctx context.Context, turn *Turn, onToken func(string) error) (*Reply, error) {
	messages := BuildCompletionMessages(turn, r.contextSize)

	var text string
	var err error
	if onToken == nil {
		text, err = r.completer.Complete(ctx, messages)
	} else {
		text, err = r.completer.Stream(ctx, messages, onToken)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		r.log.Info("client left before reply finished", map[string]interface{}{"chat_id": turn.ChatID, "partial_chars": len(text)})
		return nil, ctxErr
	}
	if err != nil && !errors.Is(err, apperrors.ErrUpstream) {
		r.log.Info("reply consumer stopped", map[string]interface{}{"chat_id": turn.ChatID, "error": err})
		return nil, err
	}

	fallback := false
	if err != nil || strings.TrimSpace(text) == "" {
		reason := fallbackReason(err, text)
		metrics.CompletionFallbacks.WithLabelValues(reason).Inc()
		r.log.Warn("serving fallback reply", map[string]interface{}{"chat_id": turn.ChatID, "reason": reason, "partial_chars": len(text)})

		addition := FallbackReply(turn)
		if strings.TrimSpace(text) != "" {
			addition = "\n\n" + addition
		}
		if onToken != nil {
			if terr := onToken(addition); terr != nil {
				return nil, terr
			}
		}
		text += addition
		fallback = true
	}

	msg, err := r.transcripts.AppendReply(ctx, turn.ChatID, chat.Reply{
		Content:     text,
		Action:      string(turn.Action),
		ResourceIDs: turn.ResourceIDs(),
		Fallback:    fallback,
	})
	if err != nil {
		return nil, err
	}
	return &Reply{Content: text, Fallback: fallback, Message: msg}, nil
}

func fallbackReason(err error, text string) string {
	switch {
	case err == nil:
		return "empty"
	case errors.Is(err, llm.ErrCircuitOpen), errors.Is(err, llm.ErrTooManyRequests):
		return "circuit_open"
	case text != "":
		return "stream_interrupted"
	default:
		return "unavailable"
	}
}

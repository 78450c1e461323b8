package llm

import (
	"context"
	"errors"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of an OpenAI-compatible chat completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the completion service as the rest of the code sees it.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
	// Stream calls onToken for every content delta and returns the full text.
	// On failure the text delivered so far is returned with the error.
	Stream(ctx context.Context, messages []Message, onToken func(token string) error) (string, error)
}

var ErrIncompleteStream = errors.New("completion stream ended without a finish signal")

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Control tokens some servers leak into the content stream.
var endTokens = map[string]bool{
	"<|end_of_text|>": true,
	"<|end|>":         true,
	"<|assistant|>":   true,
	"<|eot_id|>":      true,
	"<|im_end|>":      true,
	"[|endofturn|]":   true,
}

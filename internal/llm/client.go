package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"support-finder/internal/apperrors"
	"support-finder/internal/config"
	"support-finder/internal/logger"
	"support-finder/internal/metrics"
)

// Client talks to an OpenAI-compatible /v1/chat/completions endpoint. A
// semaphore bounds concurrent upstream calls and a circuit breaker
// short-circuits while the service is failing.
type Client struct {
	url         string
	model       string
	temperature float64
	timeout     time.Duration
	http        *http.Client
	sem         chan struct{}
	breaker     *CircuitBreaker
	log         logger.Logger
}

func NewClient(cfg config.CompletionConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Client{
		url:         cfg.URL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout(),
		// Per-request deadlines come from the context; streams may run long.
		http:    &http.Client{Timeout: 0},
		sem:     make(chan struct{}, maxConcurrent),
		breaker: NewCircuitBreaker(cfg.FailureThreshold, cfg.Cooldown(), log),
		log:     log.WithFields(map[string]interface{}{"component": "completion"}),
	}
}

func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

func (c *Client) acquire(ctx context.Context) error {
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() { <-c.sem }

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) post(ctx context.Context, messages []Message, stream bool) (*http.Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		Stream:      stream,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("completion service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return resp, nil
}

// Complete sends a non-streaming request.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.release()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var text string
	err := c.breaker.Call(func() error {
		resp, err := c.post(ctx, messages, false)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		var out chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode completion: %w", err)
		}
		if len(out.Choices) == 0 {
			return errors.New("completion returned no choices")
		}
		text = out.Choices[0].Message.Content
		return nil
	})
	c.observe("complete", start, err)
	if err != nil {
		return "", c.wrap(err)
	}
	return text, nil
}

// Stream sends a streaming request and forwards content deltas to onToken.
// Reasoning deltas are not forwarded. An error from onToken aborts the stream.
func (c *Client) Stream(ctx context.Context, messages []Message, onToken func(token string) error) (string, error) {
	start := time.Now()
	if err := c.acquire(ctx); err != nil {
		return "", err
	}
	defer c.release()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var sb strings.Builder
	// A failing consumer is not a service failure and must not trip the breaker.
	var consumerErr error
	forward := func(tok string) error {
		if onToken == nil {
			return nil
		}
		if err := onToken(tok); err != nil {
			consumerErr = err
			return errConsumerStopped
		}
		return nil
	}
	err := c.breaker.Call(func() error {
		resp, err := c.post(ctx, messages, true)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := readStream(resp.Body, &sb, forward); !errors.Is(err, errConsumerStopped) {
			return err
		}
		return nil
	})
	if consumerErr != nil {
		c.observe("stream", start, context.Canceled)
		return sb.String(), consumerErr
	}
	c.observe("stream", start, err)
	if err != nil {
		return sb.String(), c.wrap(err)
	}
	return sb.String(), nil
}

var errConsumerStopped = errors.New("stream consumer stopped")

// readStream parses SSE "data:" lines until [DONE] or a finish_reason.
func readStream(body io.Reader, sb *strings.Builder, onToken func(string) error) error {
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
			if data == "[DONE]" {
				return nil
			}
			var chunk streamChunk
			if jerr := json.Unmarshal([]byte(data), &chunk); jerr == nil && len(chunk.Choices) > 0 {
				choice := chunk.Choices[0]
				if tok := choice.Delta.Content; tok != "" && !endTokens[tok] {
					sb.WriteString(tok)
					if cerr := onToken(tok); cerr != nil {
						return cerr
					}
				}
				if choice.FinishReason != nil && *choice.FinishReason != "" {
					return nil
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrIncompleteStream
			}
			return err
		}
	}
}

func (c *Client) observe(mode string, start time.Time, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrTooManyRequests):
		outcome = "rejected"
	case errors.Is(err, context.Canceled):
		outcome = "cancelled"
	default:
		outcome = "error"
	}
	metrics.CompletionRequests.WithLabelValues(mode, outcome).Inc()
	metrics.CompletionDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err != nil && outcome != "cancelled" {
		c.log.Warn("completion failed", map[string]interface{}{"mode": mode, "outcome": outcome, "error": err})
	}
}

// wrap marks service failures as upstream errors; caller cancellation passes through.
func (c *Client) wrap(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperrors.Upstream("completion", err)
}

// Ping checks that the service answers on its models listing.
func (c *Client) Ping(ctx context.Context) error {
	url := strings.TrimSuffix(c.url, "/chat/completions") + "/models"
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.Upstream("completion", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.Upstream("completion", fmt.Errorf("models endpoint returned %d", resp.StatusCode))
	}
	return nil
}

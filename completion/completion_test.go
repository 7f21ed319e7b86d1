package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/retry"
	"github.com/google/go-cmp/cmp"
	"github.com/tmc/langchaingo/llms"
)

type response struct {
	text string
	err  error
}

type fakeLLM struct {
	responses []response
	calls     int
	prompts   []string
	options   llms.CallOptions
}

func (f *fakeLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&f.options)
	}
	for _, m := range messages {
		for _, p := range m.Parts {
			if tc, ok := p.(llms.TextContent); ok {
				f.prompts = append(f.prompts, tc.Text)
			}
		}
	}
	i := f.calls
	f.calls++
	if i >= len(f.responses) {
		return nil, errors.New("unexpected call")
	}
	r := f.responses[i]
	if r.err != nil {
		return nil, r.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: r.text}}}, nil
}

func (f *fakeLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

type instantTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func (t *instantTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Time{}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

var rateLimited = errors.New("API returned unexpected status code: 429: Rate limit reached for requests")

func newTestClient(llm llms.Model, timer *instantTimer, retries *int) *Client {
	return New(llm,
		WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
		WithRetryOptions(retry.WithTimer(timer)),
		WithOnRetry(func() { *retries++ }))
}

func TestComplete(t *testing.T) {
	t.Run("success returns trimmed text with the fixed parameters", func(t *testing.T) {
		llm := &fakeLLM{responses: []response{{text: "\n Punkt 1\nPunkt 2 \n"}}}
		var retries int
		c := newTestClient(llm, &instantTimer{}, &retries)
		text, err := c.Complete(context.Background(), Request{Prompt: "prompt", Model: "gpt-4", Temperature: 0.7, MaxTokens: 300})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "Punkt 1\nPunkt 2" {
			t.Errorf("unexpected text %q", text)
		}
		if llm.options.Temperature != 0.7 || llm.options.MaxTokens != 300 || llm.options.Model != "gpt-4" {
			t.Errorf("unexpected call options: %+v", llm.options)
		}
		if diff := cmp.Diff([]string{"prompt"}, llm.prompts); diff != "" {
			t.Error(diff)
		}
		if retries != 0 {
			t.Errorf("expected no retries, got %d", retries)
		}
	})
	t.Run("two rate limits then success takes three attempts", func(t *testing.T) {
		llm := &fakeLLM{responses: []response{{err: rateLimited}, {err: rateLimited}, {text: "ok"}}}
		timer := &instantTimer{}
		var retries int
		c := newTestClient(llm, timer, &retries)
		text, err := c.Complete(context.Background(), Request{Prompt: "prompt"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if text != "ok" {
			t.Errorf("unexpected text %q", text)
		}
		if llm.calls != 3 {
			t.Errorf("expected 3 attempts, got %d", llm.calls)
		}
		if diff := cmp.Diff([]time.Duration{time.Second, 2 * time.Second}, timer.waits); diff != "" {
			t.Errorf("unexpected delays: %s", diff)
		}
		if retries != 2 {
			t.Errorf("expected 2 retries, got %d", retries)
		}
	})
	t.Run("three rate limits exhaust the retries", func(t *testing.T) {
		llm := &fakeLLM{responses: []response{{err: rateLimited}, {err: rateLimited}, {err: rateLimited}}}
		var retries int
		c := newTestClient(llm, &instantTimer{}, &retries)
		text, err := c.Complete(context.Background(), Request{Prompt: "prompt"})
		if !failure.Is(err, failure.RateLimit) {
			t.Fatalf("expected a rate limit error, got %v", err)
		}
		if !strings.Contains(err.Error(), "exhausted retries after 3 attempts") {
			t.Errorf("unexpected message %q", err.Error())
		}
		if text != "" {
			t.Errorf("expected empty text, got %q", text)
		}
		if llm.calls != 3 {
			t.Errorf("expected 3 attempts, got %d", llm.calls)
		}
	})
	t.Run("a custom policy sets the attempts and delays", func(t *testing.T) {
		llm := &fakeLLM{responses: []response{{err: rateLimited}, {err: rateLimited}}}
		timer := &instantTimer{}
		c := New(llm,
			WithLogger(slog.New(slog.NewJSONHandler(io.Discard, nil))),
			WithRetryPolicy(retry.Policy{MaxAttempts: 2, BaseDelay: 500 * time.Millisecond, Multiplier: 2}),
			WithRetryOptions(retry.WithTimer(timer)))
		_, err := c.Complete(context.Background(), Request{Prompt: "prompt"})
		if !strings.Contains(err.Error(), "exhausted retries after 2 attempts") {
			t.Errorf("unexpected error %v", err)
		}
		if llm.calls != 2 {
			t.Errorf("expected 2 attempts, got %d", llm.calls)
		}
		if diff := cmp.Diff([]time.Duration{500 * time.Millisecond}, timer.waits); diff != "" {
			t.Errorf("unexpected delays: %s", diff)
		}
	})
	t.Run("other provider errors are not retried and keep their message", func(t *testing.T) {
		providerErr := errors.New("The model `gpt-5` does not exist")
		llm := &fakeLLM{responses: []response{{err: providerErr}}}
		var retries int
		c := newTestClient(llm, &instantTimer{}, &retries)
		text, err := c.Complete(context.Background(), Request{Prompt: "prompt"})
		if !failure.Is(err, failure.Provider) {
			t.Fatalf("expected a provider error, got %v", err)
		}
		if err.Error() != providerErr.Error() {
			t.Errorf("expected the provider message verbatim, got %q", err.Error())
		}
		if text != "" || llm.calls != 1 || retries != 0 {
			t.Errorf("expected a single attempt with no text, got text=%q calls=%d retries=%d", text, llm.calls, retries)
		}
	})
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{err: nil, expected: false},
		{err: rateLimited, expected: true},
		{err: errors.New("429 Too Many Requests"), expected: true},
		{err: errors.New("rate_limit_exceeded"), expected: true},
		{err: failure.New(failure.RateLimit, "slow down"), expected: true},
		{err: fmt.Errorf("wrapped: %w", failure.New(failure.Provider, "rate limit mentioned but classified")), expected: false},
		{err: errors.New("API returned unexpected status code: 500"), expected: false},
	}
	for _, tt := range tests {
		if actual := IsRateLimit(tt.err); actual != tt.expected {
			t.Errorf("IsRateLimit(%v): expected %v, got %v", tt.err, tt.expected, actual)
		}
	}
}

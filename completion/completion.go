package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/a-h/listingwriter/failure"
	"github.com/a-h/listingwriter/retry"
	"github.com/tmc/langchaingo/llms"
)

type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

type Client struct {
	llm    llms.Model
	log    *slog.Logger
	policy retry.Policy
	opts   []retry.Option
	// onRetry is called before each wait between attempts.
	onRetry func()
}

type Option func(*Client)

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithRetryPolicy replaces the default 3 attempts, 1s, 2s schedule. The
// policy's Retryable predicate is always replaced with IsRateLimit.
func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithRetryOptions passes options through to every retry.Policy.Do call.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(c *Client) {
		c.opts = append(c.opts, opts...)
	}
}

func WithOnRetry(f func()) Option {
	return func(c *Client) {
		c.onRetry = f
	}
}

func New(llm llms.Model, opts ...Option) *Client {
	c := &Client{
		llm:    llm,
		log:    slog.Default(),
		policy: retry.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy.Retryable = IsRateLimit
	return c
}

// Complete sends the prompt and returns the trimmed completion. Rate limits
// are retried; any other provider error is returned straight away.
func (c *Client) Complete(ctx context.Context, req Request) (text string, err error) {
	callOpts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithMaxTokens(req.MaxTokens),
	}
	if req.Model != "" {
		callOpts = append(callOpts, llms.WithModel(req.Model))
	}
	op := func(ctx context.Context) (err error) {
		text, err = llms.GenerateFromSinglePrompt(ctx, c.llm, req.Prompt, callOpts...)
		return classify(err)
	}
	notify := retry.WithNotify(func(attempt int, err error, delay time.Duration) {
		c.log.Warn("completion rate limited, retrying", slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.Any("error", err))
		if c.onRetry != nil {
			c.onRetry()
		}
	})
	attempts, err := c.policy.Do(ctx, op, append([]retry.Option{notify}, c.opts...)...)
	if err != nil {
		if IsRateLimit(err) {
			return "", failure.Wrap(failure.RateLimit, fmt.Sprintf("exhausted retries after %d attempts", attempts), err)
		}
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// IsRateLimit reports whether err means the provider's quota was exceeded.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if kind, ok := failure.KindOf(err); ok {
		return kind == failure.RateLimit
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "status code: 429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "too many requests")
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := failure.KindOf(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if IsRateLimit(err) {
		return failure.Wrap(failure.RateLimit, "", err)
	}
	return failure.Wrap(failure.Provider, "", err)
}

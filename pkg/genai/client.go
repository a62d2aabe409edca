package genai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/edu-monitoring/api/pkg/config"
)

// Backend issues a single completion request against one model.
type Backend interface {
	Complete(ctx context.Context, model, system, prompt string) (string, error)
}

// Client wraps a Backend with an ordered model fallback policy: transient
// failures retry the same model with exponential backoff, quota exhaustion
// moves straight to the next model in the list.
type Client struct {
	backend     Backend
	models      []string
	maxAttempts int
	retryBase   time.Duration
	logger      *zap.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// New constructs a Client backed by the Anthropic API.
func New(cfg config.AIConfig, logger *zap.Logger) *Client {
	backend := newAnthropicBackend(cfg.APIKey, cfg.MaxTokens)
	return NewWithBackend(backend, cfg, logger)
}

// NewWithBackend constructs a Client with an explicit backend.
func NewWithBackend(backend Backend, cfg config.AIConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = time.Second
	}
	return &Client{
		backend:     backend,
		models:      cfg.Models,
		maxAttempts: maxAttempts,
		retryBase:   retryBase,
		logger:      logger,
		sleep:       time.Sleep,
	}
}

// Generate runs the prompt through the fallback chain and returns the first
// successful completion. The last upstream error is returned once every model
// is exhausted.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	if len(c.models) == 0 {
		return "", fmt.Errorf("no models configured")
	}

	var lastErr error
	for _, model := range c.models {
		for attempt := 0; attempt < c.maxAttempts; attempt++ {
			if attempt > 0 {
				delay := c.retryBase << uint(attempt-1)
				c.logger.Sugar().Warnw("retrying completion", "model", model, "attempt", attempt+1, "delay", delay)
				c.sleep(delay)
			}
			if err := ctx.Err(); err != nil {
				return "", err
			}

			text, err := c.backend.Complete(ctx, model, system, prompt)
			if err == nil {
				return text, nil
			}
			lastErr = err

			if isQuotaExhausted(err) {
				c.logger.Sugar().Warnw("model quota exhausted, moving to next", "model", model)
				break
			}
			c.logger.Sugar().Warnw("completion attempt failed", "model", model, "attempt", attempt+1, "error", err)
		}
	}
	return "", fmt.Errorf("all models exhausted: %w", lastErr)
}

func isQuotaExhausted(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

type anthropicBackend struct {
	client    anthropic.Client
	maxTokens int64
}

func newAnthropicBackend(apiKey string, maxTokens int) *anthropicBackend {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &anthropicBackend{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxTokens: int64(maxTokens),
	}
}

func (b *anthropicBackend) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: b.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}

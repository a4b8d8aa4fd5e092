// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// defaultBaseURL is the DeepSeek chat-completions API base.
	defaultBaseURL = "https://api.deepseek.com"

	// defaultModel is the model used when no override is provided.
	defaultModel = "deepseek-chat"

	// defaultMaxAttempts bounds HTTP attempts per request. Only HTTP 429
	// is retried; any other status stops the loop immediately.
	defaultMaxAttempts = 3

	// defaultRetryDelay is the fixed wait between rate-limited attempts.
	// The API's limits are coarse-grained, so fixed beats exponential here.
	defaultRetryDelay = 5 * time.Second

	// defaultTimeout bounds each HTTP request so a hanging connection
	// cannot stall the run indefinitely.
	defaultTimeout = 2 * time.Minute
)

// DeepSeekProvider implements Provider against the DeepSeek completion API,
// which speaks the OpenAI chat-completions wire protocol.
type DeepSeekProvider struct {
	client      *openai.Client
	model       string
	maxAttempts int
	retryDelay  time.Duration

	// wait is the cancellable delay between attempts; injectable for tests.
	wait func(ctx context.Context, d time.Duration) error
}

// Compile-time check that DeepSeekProvider satisfies the Provider interface.
var _ Provider = (*DeepSeekProvider)(nil)

// DeepSeekOption configures a DeepSeekProvider.
type DeepSeekOption func(*deepseekConfig)

type deepseekConfig struct {
	baseURL     string
	model       string
	maxAttempts int
	retryDelay  time.Duration
	timeout     time.Duration
	httpClient  *http.Client
}

// WithBaseURL points the provider at a different API base, typically a
// local mock during tests.
func WithBaseURL(url string) DeepSeekOption {
	return func(c *deepseekConfig) {
		c.baseURL = url
	}
}

// WithModel overrides the default model for all requests.
func WithModel(model string) DeepSeekOption {
	return func(c *deepseekConfig) {
		c.model = model
	}
}

// WithMaxAttempts sets the total HTTP attempt budget per request.
func WithMaxAttempts(n int) DeepSeekOption {
	return func(c *deepseekConfig) {
		c.maxAttempts = n
	}
}

// WithRetryDelay sets the fixed delay between rate-limited attempts.
func WithRetryDelay(d time.Duration) DeepSeekOption {
	return func(c *deepseekConfig) {
		c.retryDelay = d
	}
}

// WithTimeout bounds each HTTP request. Ignored when a custom HTTP client
// is supplied.
func WithTimeout(d time.Duration) DeepSeekOption {
	return func(c *deepseekConfig) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client, letting tests count
// attempts with a spy transport.
func WithHTTPClient(hc *http.Client) DeepSeekOption {
	return func(c *deepseekConfig) {
		c.httpClient = hc
	}
}

// NewDeepSeekProvider creates a DeepSeek provider. The credential is passed
// explicitly; the provider never reads the environment itself.
func NewDeepSeekProvider(apiKey string, opts ...DeepSeekOption) (*DeepSeekProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: api key required")
	}

	cfg := deepseekConfig{
		baseURL:     defaultBaseURL,
		model:       defaultModel,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		timeout:     defaultTimeout,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}

	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = cfg.baseURL
	if cfg.httpClient != nil {
		clientCfg.HTTPClient = cfg.httpClient
	} else {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.timeout}
	}

	return &DeepSeekProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.model,
		maxAttempts: cfg.maxAttempts,
		retryDelay:  cfg.retryDelay,
		wait:        waitContext,
	}, nil
}

// Complete sends the two-message conversation to the chat-completions
// endpoint, retrying only on HTTP 429 with a fixed, cancellable delay.
func (p *DeepSeekProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	chatReq := p.newChatRequest(req)

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		slog.Info("requesting completion",
			"model", chatReq.Model,
			"attempt", attempt,
			"max_attempts", p.maxAttempts,
		)

		resp, err = p.client.CreateChatCompletion(ctx, chatReq)
		if err == nil {
			break
		}

		status := httpStatus(err)
		if status != http.StatusTooManyRequests {
			if status > 0 {
				return nil, &TransportError{StatusCode: status, Err: err}
			}
			return nil, fmt.Errorf("llm: completion request: %w", err)
		}
		if attempt == p.maxAttempts {
			return nil, &TransportError{StatusCode: status, Err: err}
		}

		slog.Warn("rate limit exceeded, retrying", "delay", p.retryDelay)
		if werr := p.wait(ctx, p.retryDelay); werr != nil {
			return nil, werr
		}
	}

	raw, _ := json.Marshal(resp) //nolint:errcheck // diagnostics only

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}
	content = strings.TrimSpace(content)
	if content == "" {
		slog.Error("unexpected API response", "body", string(raw))
		return nil, &EmptyResponseError{Raw: string(raw)}
	}

	return &Response{
		Content: content,
		Model:   resp.Model,
		Raw:     string(raw),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// newChatRequest maps a Request onto the wire payload: exactly one system
// message followed by one user message, streaming always disabled.
func (p *DeepSeekProvider) newChatRequest(req Request) openai.ChatCompletionRequest {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Stream: false,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	return chatReq
}

// Model returns the default model configured for this provider.
func (p *DeepSeekProvider) Model() string {
	return p.model
}

// MaxAttempts returns the configured attempt budget.
func (p *DeepSeekProvider) MaxAttempts() int {
	return p.maxAttempts
}

// httpStatus extracts the HTTP status code from a go-openai error chain,
// or 0 when the failure never produced a status (network error).
func httpStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// waitContext blocks for d or until ctx is cancelled, whichever comes first.
func waitContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

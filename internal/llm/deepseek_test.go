// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/testsmith/internal/llm"
)

// completionBody is the wire payload captured by the test server, decoded
// just far enough to assert on message shape.
type completionBody struct {
	Model    string `json:"model"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
}

// newCompletionServer returns a server that answers each request with the
// next status in statuses, repeating the last one forever. 200 responses
// carry content; everything else carries an API error envelope. The returned
// counter reports how many HTTP attempts the server saw.
func newCompletionServer(t *testing.T, content string, statuses ...int) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		idx := int(n) - 1
		if idx >= len(statuses) {
			idx = len(statuses) - 1
		}
		status := statuses[idx]

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":{"message":"simulated failure","type":"test"}}`)
			return
		}
		resp := map[string]any{
			"id":      "cmpl-test",
			"object":  "chat.completion",
			"created": 1,
			"model":   "deepseek-chat",
			"choices": []map[string]any{
				{
					"index":         0,
					"finish_reason": "stop",
					"message":       map[string]any{"role": "assistant", "content": content},
				},
			},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 7, "total_tokens": 19},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv, &attempts
}

func newTestProvider(t *testing.T, url string, opts ...llm.DeepSeekOption) *llm.DeepSeekProvider {
	t.Helper()
	base := []llm.DeepSeekOption{
		llm.WithBaseURL(url + "/v1"),
		llm.WithRetryDelay(time.Millisecond),
	}
	p, err := llm.NewDeepSeekProvider("test-key", append(base, opts...)...)
	require.NoError(t, err)
	return p
}

func TestNewDeepSeekProvider_NoKey(t *testing.T) {
	p, err := llm.NewDeepSeekProvider("")
	assert.Nil(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key required")

	p, err = llm.NewDeepSeekProvider("   ")
	assert.Nil(t, p)
	require.Error(t, err)
}

func TestNewDeepSeekProvider_Defaults(t *testing.T) {
	p, err := llm.NewDeepSeekProvider("test-key")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", p.Model())
	assert.Equal(t, 3, p.MaxAttempts())
}

func TestNewDeepSeekProvider_CustomModel(t *testing.T) {
	p, err := llm.NewDeepSeekProvider("test-key", llm.WithModel("deepseek-coder"))
	require.NoError(t, err)
	assert.Equal(t, "deepseek-coder", p.Model())
}

func TestComplete_Success(t *testing.T) {
	srv, attempts := newCompletionServer(t, "assert add(1, 2) == 3", http.StatusOK)
	p := newTestProvider(t, srv.URL)

	resp, err := p.Complete(context.Background(), llm.Request{
		SystemPrompt: "system",
		Prompt:       "user",
	})
	require.NoError(t, err)
	assert.Equal(t, "assert add(1, 2) == 3", resp.Content)
	assert.Equal(t, "deepseek-chat", resp.Model)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, 7, resp.Usage.OutputTokens)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestComplete_RequestShape(t *testing.T) {
	var (
		gotAuth string
		gotBody completionBody
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"deepseek-chat",`+
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	temp := 1.0
	_, err := p.Complete(context.Background(), llm.Request{
		SystemPrompt: "be helpful",
		Prompt:       "write tests",
		Temperature:  &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "deepseek-chat", gotBody.Model)
	assert.False(t, gotBody.Stream, "streaming must be disabled")
	assert.InDelta(t, 1.0, gotBody.Temperature, 0.001)

	// Exactly one system message followed by one user message.
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
	assert.Equal(t, "be helpful", gotBody.Messages[0].Content)
	assert.Equal(t, "user", gotBody.Messages[1].Role)
	assert.Equal(t, "write tests", gotBody.Messages[1].Content)
}

func TestComplete_RetriesOnRateLimit(t *testing.T) {
	// 429 twice, then success: three attempts total, no error.
	srv, attempts := newCompletionServer(t, "assert True",
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK)
	p := newTestProvider(t, srv.URL)

	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "go"})
	require.NoError(t, err)
	assert.Equal(t, "assert True", resp.Content)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestComplete_RateLimitExhausted(t *testing.T) {
	// Every attempt rate-limited: exactly maxAttempts requests, then a
	// terminal transport failure.
	srv, attempts := newCompletionServer(t, "", http.StatusTooManyRequests)
	p := newTestProvider(t, srv.URL, llm.WithMaxAttempts(3))

	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "go"})
	assert.Nil(t, resp)
	require.Error(t, err)

	var te *llm.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusTooManyRequests, te.StatusCode)
	assert.EqualValues(t, 3, attempts.Load())
}

func TestComplete_OtherStatusFailsImmediately(t *testing.T) {
	srv, attempts := newCompletionServer(t, "", http.StatusInternalServerError)
	p := newTestProvider(t, srv.URL)

	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "go"})
	assert.Nil(t, resp)

	var te *llm.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.EqualValues(t, 1, attempts.Load(), "non-429 statuses must not be retried")
}

func TestComplete_UnauthorizedFailsImmediately(t *testing.T) {
	srv, attempts := newCompletionServer(t, "", http.StatusUnauthorized)
	p := newTestProvider(t, srv.URL)

	_, err := p.Complete(context.Background(), llm.Request{Prompt: "go"})
	var te *llm.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.EqualValues(t, 1, attempts.Load())
}

func TestComplete_EmptyContent(t *testing.T) {
	srv, _ := newCompletionServer(t, "   \n\t  ", http.StatusOK)
	p := newTestProvider(t, srv.URL)

	resp, err := p.Complete(context.Background(), llm.Request{Prompt: "go"})
	assert.Nil(t, resp)

	var ee *llm.EmptyResponseError
	require.ErrorAs(t, err, &ee)
	assert.NotEmpty(t, ee.Raw, "raw body must be preserved for diagnostics")
}

func TestComplete_MissingChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"deepseek-chat","choices":[]}`)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), llm.Request{Prompt: "go"})

	var ee *llm.EmptyResponseError
	require.ErrorAs(t, err, &ee)
}

func TestComplete_ContextCancelledDuringBackoff(t *testing.T) {
	srv, attempts := newCompletionServer(t, "", http.StatusTooManyRequests)
	p := newTestProvider(t, srv.URL, llm.WithRetryDelay(10*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Complete(ctx, llm.Request{Prompt: "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation must interrupt the retry delay")
	assert.EqualValues(t, 1, attempts.Load())
}

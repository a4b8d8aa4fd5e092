// Package llm provides the completion-API client used to generate test
// cases, behind a small synchronous interface so the pipeline can be tested
// without network access.
package llm

import "context"

// Provider abstracts the completion API behind a single synchronous method.
type Provider interface {
	// Complete sends a prompt to the model and returns the response.
	// Implementations must respect context cancellation and deadlines.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request describes a single completion request.
type Request struct {
	// SystemPrompt sets the system instruction for the completion.
	SystemPrompt string

	// Prompt is the user message to send.
	Prompt string

	// Model overrides the provider's default model. If empty, the provider
	// uses its configured default.
	Model string

	// Temperature controls sampling randomness. If nil, the provider omits
	// the parameter and the API default applies.
	Temperature *float64
}

// Response holds the result of a completion call.
type Response struct {
	// Content is the text returned by the model, whitespace-trimmed.
	Content string

	// Model is the model that actually served the request.
	Model string

	// Raw is the full response body as JSON, kept for diagnostics.
	Raw string

	// Usage reports token consumption.
	Usage Usage
}

// Usage tracks input and output token counts for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

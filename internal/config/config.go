// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package config resolves testsmith settings from defaults, project config
// files, environment variables, and flags — in that precedence order. The
// API credential is resolved once here and threaded explicitly into the
// client at construction time; nothing else reads the environment ad hoc.
package config

import (
	"fmt"
	"strings"
	"time"
)

// EnvAPIKey is the environment variable holding the DeepSeek API credential.
const EnvAPIKey = "DEEPSEEK_API_KEY"

// Config holds every setting the generation pipeline needs.
type Config struct {
	// APIKey is the bearer credential for the completion endpoint.
	APIKey string

	// Model is the model identifier sent with each request.
	Model string

	// Temperature is the sampling temperature sent with each request.
	Temperature float64

	// BaseURL is the completion API base. Overridable for local mocks.
	BaseURL string

	// Strategy selects the response cleaning strategy ("line" or "blocks").
	Strategy string

	// MaxAttempts bounds the HTTP attempts per request (rate-limit retries).
	MaxAttempts int

	// RetryDelay is the fixed wait between rate-limited attempts.
	RetryDelay time.Duration

	// Timeout bounds each HTTP request end to end.
	Timeout time.Duration

	// Concurrency caps how many files are processed in parallel.
	Concurrency int
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:       "deepseek-chat",
		Temperature: 1.0,
		BaseURL:     "https://api.deepseek.com",
		Strategy:    "line",
		MaxAttempts: 3,
		RetryDelay:  5 * time.Second,
		Timeout:     2 * time.Minute,
		Concurrency: 1,
	}
}

// ResolveAPIKey trims and validates the credential. An empty or unset key
// yields a *MissingKeyError carrying setup instructions; no other validation
// is performed.
func (c Config) ResolveAPIKey() (string, error) {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		return "", &MissingKeyError{Variable: EnvAPIKey}
	}
	return key, nil
}

// MissingKeyError reports an absent API credential. It is a configuration
// failure: never retried, surfaced immediately to the caller.
type MissingKeyError struct {
	Variable string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("%s is not set. Please set it using:\n"+
		"export %s='your_api_key_here'  (Linux/macOS)\n"+
		"set %s='your_api_key_here'  (Windows CMD)\n"+
		"$env:%s='your_api_key_here'  (PowerShell)",
		e.Variable, e.Variable, e.Variable, e.Variable)
}

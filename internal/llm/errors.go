// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package llm

import "fmt"

// TransportError reports a completion request that ended with a non-2xx
// status: immediately for anything other than 429, or after the retry budget
// was spent for rate limiting. It is fatal; no output file is written.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm: completion request failed with status %d: %v", e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// EmptyResponseError reports a 2xx response that carried no usable content —
// either the content was empty after trimming, or expected keys were missing
// from the response body. Raw preserves the response for diagnostics.
type EmptyResponseError struct {
	Raw string
}

func (e *EmptyResponseError) Error() string {
	return "llm: received empty completion from API"
}

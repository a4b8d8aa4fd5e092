// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package config

import (
	"context"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// envVars mirrors the environment variables testsmith recognizes.
type envVars struct {
	APIKey  string `env:"DEEPSEEK_API_KEY"`
	Model   string `env:"TESTSMITH_MODEL"`
	BaseURL string `env:"TESTSMITH_BASE_URL"`
}

// WithEnv returns a copy of c overlaid with values from the process
// environment. Unset variables leave the corresponding field untouched.
func (c Config) WithEnv(ctx context.Context) (Config, error) {
	var e envVars
	if err := envconfig.Process(ctx, &e); err != nil {
		return c, err
	}

	if key := strings.TrimSpace(e.APIKey); key != "" {
		c.APIKey = key
	}
	if e.Model != "" {
		c.Model = e.Model
	}
	if e.BaseURL != "" {
		c.BaseURL = e.BaseURL
	}
	return c, nil
}

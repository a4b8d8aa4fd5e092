// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/davetashner/testsmith/internal/clean"
	"github.com/davetashner/testsmith/internal/config"
	"github.com/davetashner/testsmith/internal/generate"
	"github.com/davetashner/testsmith/internal/llm"
	"github.com/davetashner/testsmith/internal/testable"
)

// GenerateInput is the input schema for the generate_tests MCP tool.
type GenerateInput struct {
	Path       string  `json:"path" jsonschema:"Path to the source file to generate tests for"`
	Model      string  `json:"model,omitempty" jsonschema:"Model identifier override (default: deepseek-chat)"`
	Strategy   string  `json:"strategy,omitempty" jsonschema:"Response cleaning strategy: line or blocks (default: line)"`
	MarkedOnly bool    `json:"marked_only,omitempty" jsonschema:"Only send declarations marked with //testsmith:include (Go files)"`
	GitContext bool    `json:"git_context,omitempty" jsonschema:"Include recent git history for the file in the prompt"`
	Temp       float64 `json:"temperature,omitempty" jsonschema:"Sampling temperature (default: 1.0)"`
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

// registerTools adds all testsmith tools to the MCP server.
func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_tests",
		Description: "Generate a test-suite source file for a given source file using the DeepSeek completion API. Writes test_<name> next to the input and returns its path.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    false,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, handleGenerate)
}

func handleGenerate(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, any, error) {
	path, err := resolveFile(input.Path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Default().WithEnv(ctx)
	if err != nil {
		return nil, nil, err
	}
	if input.Model != "" {
		cfg.Model = input.Model
	}
	if input.Temp > 0 {
		cfg.Temperature = input.Temp
	}
	if input.Strategy != "" {
		s, err := clean.ParseStrategy(input.Strategy)
		if err != nil {
			return nil, nil, err
		}
		cfg.Strategy = string(s)
	}

	key, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, nil, err
	}

	provider, err := llm.NewDeepSeekProvider(key,
		llm.WithModel(cfg.Model),
		llm.WithBaseURL(cfg.BaseURL),
		llm.WithMaxAttempts(cfg.MaxAttempts),
		llm.WithRetryDelay(cfg.RetryDelay),
		llm.WithTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, nil, err
	}

	gen := generate.New(testable.OsFileSystem{}, provider, cfg)
	gen.MarkedOnly = input.MarkedOnly
	gen.GitContext = input.GitContext
	gen.Out = os.Stderr // keep stdout clean for the MCP transport

	outPath, err := gen.File(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("test file written to %s", outPath)},
		},
	}, nil, nil
}

// resolveFile normalizes and validates a tool-supplied file path.
func resolveFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%q is a directory, not a source file", path)
	}
	return abs, nil
}

// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package mcpserver exposes testsmith's generator as a Model Context
// Protocol tool, so coding agents can request test files directly.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// New creates a new MCP server with testsmith's tools registered.
func New(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "testsmith",
		Title:   "Testsmith — AI Test Generation",
		Version: version,
	}, nil)

	registerTools(server)
	return server
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, transport mcp.Transport) error {
	server := New(version)
	return server.Run(ctx, transport)
}

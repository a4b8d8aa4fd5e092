// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package prompt builds the two-message conversation sent to the completion
// API. Build is a pure function: identical inputs always produce identical
// prompts, and the source text is embedded verbatim with no validation.
package prompt

import (
	"fmt"
	"path/filepath"
	"strings"
)

// systemInstructions is the static system message for every request.
const systemInstructions = "You are a helpful assistant that generates " +
	"test cases for source code. The test cases should import all necessary " +
	"functions, types, and modules from the original file. Include proper " +
	"assertions and test coverage for all major functionalities. The test " +
	"file should be ready to run directly with the language's standard test " +
	"tooling without any modifications. Any explanations or comments should " +
	"be formatted as code comments."

// Prompt is an ordered two-message conversation: the system instruction
// followed by the user message embedding the source code.
type Prompt struct {
	System string
	User   string
}

// Context carries optional repository context appended to the user message.
// Leaving it nil reproduces the bare file-plus-source prompt.
type Context struct {
	// ModulePath is the enclosing module or package path, when known.
	ModulePath string

	// RecentCommits lists recent commit subjects touching the file.
	RecentCommits []string
}

// Build assembles the prompt for a source file. The file path and the full
// source text are interpolated into the user message, the source inside a
// fenced code block tagged with the file's language.
func Build(path, source string, extra *Context) Prompt {
	var b strings.Builder

	b.WriteString("Generate test cases for the following source file:\n\n")
	fmt.Fprintf(&b, "File Path: %s\n\n", path)
	fmt.Fprintf(&b, "Source Code:\n```%s\n%s\n```", LangTag(path), source)

	if extra != nil {
		if extra.ModulePath != "" {
			fmt.Fprintf(&b, "\n\nThe file belongs to module %s; import symbols under that path.", extra.ModulePath)
		}
		if len(extra.RecentCommits) > 0 {
			b.WriteString("\n\nRecent changes to this file:\n")
			for _, c := range extra.RecentCommits {
				fmt.Fprintf(&b, "- %s\n", c)
			}
		}
	}

	return Prompt{
		System: systemInstructions,
		User:   b.String(),
	}
}

// LangTag maps a file extension to the markdown fence language tag used when
// embedding its source. Unknown extensions get an untagged fence.
func LangTag(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".go":
		return "go"
	case ".py":
		return "python"
	case ".js", ".jsx":
		return "javascript"
	case ".ts", ".tsx":
		return "typescript"
	case ".rb":
		return "ruby"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	default:
		return ""
	}
}

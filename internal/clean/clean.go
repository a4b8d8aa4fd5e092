// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package clean turns a model's free-form reply into test source code.
//
// Two named strategies exist because call sites differ in what they assume
// about the reply. LineHeuristic demotes stray prose to comments line by
// line and then strips fence markers — a safety net that works even when the
// model ignores fencing entirely. FenceBlocks trusts the fencing: code blocks
// are extracted verbatim and everything between them becomes documentation.
// The strategies are deliberately not reconciled.
package clean

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Strategy names a cleaning algorithm.
type Strategy string

const (
	// StrategyLine is the line-oriented comment-demotion pass.
	StrategyLine Strategy = "line"

	// StrategyBlocks is the fence-block extraction pass.
	StrategyBlocks Strategy = "blocks"
)

// ParseStrategy validates a strategy name from a flag or config file.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyLine, StrategyBlocks:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("clean: unknown strategy %q (want %q or %q)", s, StrategyLine, StrategyBlocks)
	}
}

// Apply runs the named strategy over text. Both strategies are deterministic
// and total: well-formed text never produces an error, so none is returned.
func Apply(s Strategy, text, path string) string {
	if s == StrategyBlocks {
		return FenceBlocks(text, path)
	}
	return LineHeuristic(text, path)
}

// langSpec describes how to recognize code lines and write comments in one
// target language.
type langSpec struct {
	extensions     []string
	commentPrefix  string   // prepended when demoting prose to a comment
	commentMarkers []string // prefixes that already denote a comment
	keepPrefixes   []string // import, definition, and assertion keywords
	docOpen        string   // documentation block delimiters for FenceBlocks
	docClose       string
}

var langSpecs = []langSpec{
	{
		extensions:     []string{".go"},
		commentPrefix:  "// ",
		commentMarkers: []string{"//", "/*", "*"},
		keepPrefixes: []string{
			"package", "import", "func", "type", "var", "const",
			"assert", "require", "}", ")",
		},
		docOpen:  "/*",
		docClose: "*/",
	},
	{
		// Python. Also the fallback spec for unknown extensions, matching
		// the behavior the tool shipped with originally.
		extensions:     []string{".py"},
		commentPrefix:  "# ",
		commentMarkers: []string{"#"},
		keepPrefixes:   []string{"from", "import", "def", "assert"},
		docOpen:        `"""`,
		docClose:       `"""`,
	},
	{
		extensions:     []string{".js", ".jsx", ".ts", ".tsx"},
		commentPrefix:  "// ",
		commentMarkers: []string{"//", "/*", "*"},
		keepPrefixes: []string{
			"import", "export", "function", "const", "let", "var", "class",
			"describe", "test", "it", "expect", "}", ")",
		},
		docOpen:  "/*",
		docClose: "*/",
	},
}

// specFor picks the language spec for a file path, falling back to Python.
func specFor(path string) langSpec {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range langSpecs {
		for _, e := range s.extensions {
			if e == ext {
				return s
			}
		}
	}
	return langSpecs[1]
}

// fenceMarker matches a markdown fence with or without a language tag.
var fenceMarker = regexp.MustCompile("```[A-Za-z0-9_+-]*")

// LineHeuristic rewrites every non-blank line that does not already start
// with a comment marker, fence marker, or an import/definition/assertion
// keyword into a comment line, then strips all fence markers, removes
// literal "bash", and trims surrounding whitespace. Applying it twice yields
// byte-identical output: demoted lines start with a comment marker and are
// left alone on the second pass.
func LineHeuristic(text, path string) string {
	spec := specFor(path)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || keepLine(trimmed, spec) {
			continue
		}
		lines[i] = spec.commentPrefix + line
	}

	out := strings.Join(lines, "\n")
	out = fenceMarker.ReplaceAllString(out, "")
	out = strings.ReplaceAll(out, "bash", "")
	return strings.TrimSpace(out)
}

// keepLine reports whether a trimmed, non-blank line survives demotion.
func keepLine(trimmed string, spec langSpec) bool {
	if strings.HasPrefix(trimmed, "```") {
		return true
	}
	for _, m := range spec.commentMarkers {
		if strings.HasPrefix(trimmed, m) {
			return true
		}
	}
	for _, k := range spec.keepPrefixes {
		if strings.HasPrefix(trimmed, k) {
			return true
		}
	}
	return false
}

// FenceBlocks extracts every fenced block verbatim and wraps each
// interleaving non-blank prose span in the language's documentation block
// delimiters, concatenating documentation and code in document order. An
// unterminated fence treats the remainder as code. No backtick sequences
// survive in the output.
func FenceBlocks(text, path string) string {
	spec := specFor(path)

	var out []string
	var prose, code []string
	inFence := false

	flushProse := func() {
		joined := strings.TrimSpace(strings.Join(prose, "\n"))
		prose = prose[:0]
		if joined == "" {
			return
		}
		out = append(out, spec.docOpen, joined, spec.docClose, "")
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				out = append(out, code...)
				out = append(out, "")
				code = code[:0]
				inFence = false
			} else {
				flushProse()
				inFence = true
			}
			continue
		}
		if inFence {
			code = append(code, line)
		} else {
			prose = append(prose, line)
		}
	}

	if inFence {
		out = append(out, code...)
	} else {
		flushProse()
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

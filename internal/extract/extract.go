// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package extract reduces a Go source file to the declarations its author
// explicitly marked for test generation, plus the imports they need.
//
// A declaration is marked by placing the exact directive comment
// //testsmith:include in its doc comment. The match is structural and
// unparameterized: //testsmith:include with any suffix or argument is not
// recognized. This is an explicit limitation, not an oversight.
package extract

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
)

// Directive is the marker comment that opts a top-level declaration into
// extraction.
const Directive = "//testsmith:include"

// Marked parses the file and reassembles a reduced source snippet: a
// synthetic header line (the file's package clause), every top-level import
// declaration in source order, a blank line, then every marked top-level
// function or type declaration in source order separated by blank lines.
// The snippet exists only in memory for one request.
func Marked(path string) (string, error) {
	src, err := os.ReadFile(path) //nolint:gosec // user-provided input path
	if err != nil {
		return "", err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return "", fmt.Errorf("extract: parse %s: %w", path, err)
	}

	var imports, defs []string
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok == token.IMPORT {
				seg, err := segment(fset, src, d.Pos(), d.End())
				if err != nil {
					return "", err
				}
				imports = append(imports, seg)
				continue
			}
			if hasDirective(d.Doc) {
				seg, err := segment(fset, src, declStart(d.Doc, d.Pos()), d.End())
				if err != nil {
					return "", err
				}
				defs = append(defs, seg)
			}
		case *ast.FuncDecl:
			if hasDirective(d.Doc) {
				seg, err := segment(fset, src, declStart(d.Doc, d.Pos()), d.End())
				if err != nil {
					return "", err
				}
				defs = append(defs, seg)
			}
		}
	}

	header := "package " + file.Name.Name
	head := strings.Join(append([]string{header}, imports...), "\n")
	return strings.TrimSpace(head + "\n\n" + strings.Join(defs, "\n\n")), nil
}

// hasDirective reports whether a doc comment carries the exact, bare
// directive. Comments with trailing arguments do not match.
func hasDirective(doc *ast.CommentGroup) bool {
	if doc == nil {
		return false
	}
	for _, c := range doc.List {
		if c.Text == Directive {
			return true
		}
	}
	return false
}

// declStart returns the start position of a declaration including its doc
// comment, so the directive travels with the extracted definition.
func declStart(doc *ast.CommentGroup, pos token.Pos) token.Pos {
	if doc != nil {
		return doc.Pos()
	}
	return pos
}

// segment recovers the original source text between two positions. Failure
// here means the positions do not belong to src, which cannot happen for a
// tree parsed from it.
func segment(fset *token.FileSet, src []byte, pos, end token.Pos) (string, error) {
	start := fset.Position(pos).Offset
	stop := fset.Position(end).Offset
	if start < 0 || stop > len(src) || start > stop {
		return "", errors.New("extract: cannot recover source segment")
	}
	return string(src[start:stop]), nil
}

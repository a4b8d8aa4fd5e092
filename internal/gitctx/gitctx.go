// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package gitctx gathers lightweight repository context for prompts: recent
// commit subjects touching a file, and the enclosing Go module path. All of
// it is optional — callers treat any error as "no context available".
package gitctx

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"golang.org/x/mod/modfile"
)

// RecentCommits returns the subjects of the most recent n commits that
// touched path, newest first, formatted as "abcd1234 subject". The repository
// is discovered by walking up from the file's directory.
func RecentCommits(path string, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(wt.Filesystem.Root(), abs)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)

	iter, err := repo.Log(&git.LogOptions{
		FileName: &rel,
		Order:    git.LogOrderCommitterTime,
	})
	if err != nil {
		// A repo with no commits yields "reference not found".
		return nil, nil
	}

	var subjects []string
	err = iter.ForEach(func(c *object.Commit) error {
		subjects = append(subjects, c.Hash.String()[:8]+" "+firstLine(c.Message))
		if len(subjects) >= n {
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

// ModulePath returns the module path from the nearest go.mod at or above
// dir, or "" when the file is not inside a Go module.
func ModulePath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	for {
		data, err := os.ReadFile(filepath.Join(abs, "go.mod")) //nolint:gosec // discovery walk
		if err == nil {
			return modfile.ModulePath(data)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return ""
		}
		abs = parent
	}
}

// firstLine returns the first line of a commit message.
func firstLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		return strings.TrimSpace(msg[:i])
	}
	return strings.TrimSpace(msg)
}

// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

// Package generate orchestrates the test-generation pipeline: read the
// target file, build the prompt, call the completion API, clean the reply,
// and write the test file next to the input.
package generate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davetashner/testsmith/internal/clean"
	"github.com/davetashner/testsmith/internal/config"
	"github.com/davetashner/testsmith/internal/extract"
	"github.com/davetashner/testsmith/internal/gitctx"
	"github.com/davetashner/testsmith/internal/llm"
	"github.com/davetashner/testsmith/internal/prompt"
	"github.com/davetashner/testsmith/internal/testable"
)

// NotFoundError reports a target file that does not exist. Never retried.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("generate: input file %q not found", e.Path)
}

// Generator runs the pipeline for one or more files. The zero value is not
// usable; construct with New.
type Generator struct {
	fs       testable.FileSystem
	provider llm.Provider
	cfg      config.Config

	// MarkedOnly reduces Go inputs to declarations carrying the
	// //testsmith:include directive before prompting.
	MarkedOnly bool

	// GitContext appends recent commit subjects and the module path to the
	// prompt when the file lives in a git repository.
	GitContext bool

	// Out receives human-readable status lines. Defaults to os.Stdout.
	Out io.Writer
}

// New creates a Generator over the given file system, provider, and config.
func New(fs testable.FileSystem, provider llm.Provider, cfg config.Config) *Generator {
	return &Generator{fs: fs, provider: provider, cfg: cfg}
}

var statusOK = color.New(color.FgGreen)

// File generates a test file for one source file and returns the written
// path. On any failure no output is written; errors propagate to the caller
// untouched so the CLI boundary can classify them.
func (g *Generator) File(ctx context.Context, path string) (string, error) {
	runID := uuid.NewString()[:8]

	info, err := g.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: path}
		}
		return "", fmt.Errorf("generate: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("generate: %s is a directory, not a source file", path)
	}

	data, err := g.fs.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("generate: read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("generate: %s: source is not valid UTF-8", path)
	}
	source := string(data)

	if g.MarkedOnly {
		if !strings.EqualFold(filepath.Ext(path), ".go") {
			return "", fmt.Errorf("generate: marked-only extraction supports Go sources, got %s", path)
		}
		source, err = extract.Marked(path)
		if err != nil {
			return "", err
		}
	}

	p := prompt.Build(path, source, g.promptContext(path))
	temp := g.cfg.Temperature

	slog.Info("generating test cases",
		"run", runID,
		"file", path,
		"model", g.cfg.Model,
	)

	resp, err := g.provider.Complete(ctx, llm.Request{
		SystemPrompt: p.System,
		Prompt:       p.User,
		Model:        g.cfg.Model,
		Temperature:  &temp,
	})
	if err != nil {
		return "", err
	}

	cleaned := clean.Apply(clean.Strategy(g.cfg.Strategy), resp.Content, path)

	outPath := filepath.Join(filepath.Dir(path), "test_"+filepath.Base(path))
	if err := g.fs.WriteFile(outPath, []byte(cleaned), 0o644); err != nil {
		return "", fmt.Errorf("generate: write %s: %w", outPath, err)
	}

	slog.Info("test file generated", "run", runID, "path", outPath,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	statusOK.Fprintf(g.out(), "generated %s\n", outPath) //nolint:errcheck // status line

	return outPath, nil
}

// Run processes several files, at most cfg.Concurrency at a time, and
// returns the written paths in input order. The first failure cancels the
// remaining work.
func (g *Generator) Run(ctx context.Context, paths []string) ([]string, error) {
	limit := g.cfg.Concurrency
	if limit < 1 {
		limit = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	results := make([]string, len(paths))
	for i, p := range paths {
		eg.Go(func() error {
			out, err := g.File(ctx, p)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// promptContext collects optional repository context. Context gathering is
// best effort: a file outside any git repo simply gets none.
func (g *Generator) promptContext(path string) *prompt.Context {
	if !g.GitContext {
		return nil
	}

	pctx := &prompt.Context{
		ModulePath: gitctx.ModulePath(filepath.Dir(path)),
	}
	commits, err := gitctx.RecentCommits(path, 5)
	if err != nil {
		slog.Debug("no git context available", "file", path, "err", err)
	}
	pctx.RecentCommits = commits

	if pctx.ModulePath == "" && len(pctx.RecentCommits) == 0 {
		return nil
	}
	return pctx
}

func (g *Generator) out() io.Writer {
	if g.Out != nil {
		return g.Out
	}
	return os.Stdout
}

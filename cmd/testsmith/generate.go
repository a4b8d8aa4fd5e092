// Copyright 2026 The Testsmith Authors
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/davetashner/testsmith/internal/clean"
	"github.com/davetashner/testsmith/internal/config"
	"github.com/davetashner/testsmith/internal/generate"
	"github.com/davetashner/testsmith/internal/llm"
	"github.com/davetashner/testsmith/internal/testable"
)

// Generate-specific flag values.
var (
	genModel       string
	genTemperature float64
	genStrategy    string
	genMarkedOnly  bool
	genGitContext  bool
	genConcurrency int
	genTimeout     time.Duration
)

// generateCmd produces one test file per input source file.
var generateCmd = &cobra.Command{
	Use:   "generate <file> [file...]",
	Short: "Generate a test file for each source file",
	Long: `Send each source file to the completion API and write the generated
test suite to test_<filename> in the same directory, overwriting any
previous run. Requires ` + config.EnvAPIKey + ` to be set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genModel, "model", "m", "", "model identifier (default: deepseek-chat)")
	generateCmd.Flags().Float64VarP(&genTemperature, "temperature", "t", 1.0, "sampling temperature")
	generateCmd.Flags().StringVar(&genStrategy, "strategy", "", "response cleaning strategy: line or blocks (default: line)")
	generateCmd.Flags().BoolVar(&genMarkedOnly, "marked-only", false, "only send declarations marked with //testsmith:include (Go files)")
	generateCmd.Flags().BoolVar(&genGitContext, "git-context", false, "include recent git history for each file in the prompt")
	generateCmd.Flags().IntVar(&genConcurrency, "concurrency", 0, "max files processed in parallel (default: 1)")
	generateCmd.Flags().DurationVar(&genTimeout, "timeout", 0, "per-request HTTP timeout (default: 2m)")
}

// newProvider constructs the completion client. Tests replace it to count
// transport invocations without a network.
var newProvider = func(key string, cfg config.Config) (llm.Provider, error) {
	return llm.NewDeepSeekProvider(key,
		llm.WithModel(cfg.Model),
		llm.WithBaseURL(cfg.BaseURL),
		llm.WithMaxAttempts(cfg.MaxAttempts),
		llm.WithRetryDelay(cfg.RetryDelay),
		llm.WithTimeout(cfg.Timeout),
	)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()

	fileCfg, err := config.LoadFile(".")
	if err != nil {
		return &exitCodeError{code: ExitInvalidArgs, msg: fmt.Sprintf("testsmith: invalid config file (%v)", err)}
	}
	cfg = cfg.WithFile(fileCfg)

	cfg, err = cfg.WithEnv(cmd.Context())
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = genModel
	}
	if flags.Changed("temperature") {
		cfg.Temperature = genTemperature
	}
	if flags.Changed("strategy") {
		cfg.Strategy = genStrategy
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = genConcurrency
	}
	if flags.Changed("timeout") {
		cfg.Timeout = genTimeout
	}

	if _, err := clean.ParseStrategy(cfg.Strategy); err != nil {
		return &exitCodeError{code: ExitInvalidArgs, msg: err.Error()}
	}

	// Resolve the credential before touching the network; a missing key
	// must fail without a single transport invocation.
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		return &exitCodeError{code: ExitInvalidArgs, msg: err.Error()}
	}

	provider, err := newProvider(key, cfg)
	if err != nil {
		return err
	}

	gen := generate.New(testable.OsFileSystem{}, provider, cfg)
	gen.MarkedOnly = genMarkedOnly
	gen.GitContext = genGitContext
	gen.Out = cmd.OutOrStdout()

	if _, err := gen.Run(cmd.Context(), args); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps pipeline failures onto CLI exit codes.
func classify(err error) error {
	var nf *generate.NotFoundError
	if errors.As(err, &nf) {
		return &exitCodeError{code: ExitInvalidArgs, msg: err.Error()}
	}

	var te *llm.TransportError
	var ee *llm.EmptyResponseError
	if errors.As(err, &te) || errors.As(err, &ee) {
		return &exitCodeError{code: ExitGeneration, msg: err.Error()}
	}
	return err
}

package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	tslog "github.com/davetashner/testsmith/internal/log"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for testsmith.
var rootCmd = &cobra.Command{
	Use:   "testsmith",
	Short: "Generate test suites for source files with an LLM",
	Long: `Testsmith sends a source file to the DeepSeek completion API and turns
the reply into a runnable test file written next to the input as
test_<filename>. Prose in the model's answer is demoted to comments so the
output runs directly under the language's standard test tooling.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		tslog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

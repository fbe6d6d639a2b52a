// Package cmd implements the gots CLI: `gots [flags] <file>` plus the
// `compile`, `run`, `version`, and `repl` subcommands, one file per
// subcommand.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	watch      bool
	production bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "gots [flags] <file>",
	Short: "gots — a JIT compiler and runtime for a typed scripting language",
	Long: `gots lexes, parses, type-infers, and JIT-compiles source directly to
native machine code, then executes it in-process with a lightweight-task
concurrency runtime (promises, timers, a module system with circular-
import tolerance, and a single-inheritance class model).`,
	Version:      Version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runFile(args[0], production, watch)
	},
}

// Execute runs the root command; the caller (main.go) maps a non-nil
// error to exit code 1.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&watch, "watch", "w", false, "re-run on modified source or any transitively imported file (250ms debounce)")
	rootCmd.PersistentFlags().BoolVarP(&production, "production", "p", false, "emit without bounds-check/guard instructions")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf("gots version %s\n", Version))
}

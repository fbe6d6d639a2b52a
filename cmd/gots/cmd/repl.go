package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turbobuilt/gots/internal/compiler"
	"github.com/turbobuilt/gots/internal/replui"
)

// replCmd starts the interactive session internal/replui implements.
var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive gots session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := replui.New()
		r.Production = production
		if replBackend == "stackvm" {
			r.Backend = compiler.BackendStackVM
		}
		r.Start(os.Stdin, os.Stdout)
		return nil
	},
}

var replBackend string

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replBackend, "backend", "x86", "target backend: x86 or stackvm")
}

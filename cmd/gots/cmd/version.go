package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set by build flags; unset (development) builds report "dev".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gots version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

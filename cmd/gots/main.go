// Command gots compiles and runs gots source files: `gots [flags] <file>`.
package main

import (
	"os"

	"github.com/turbobuilt/gots/cmd/gots/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

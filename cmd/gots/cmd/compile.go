package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turbobuilt/gots/internal/codegen/stackvm"
	"github.com/turbobuilt/gots/internal/compiler"
)

var (
	compileBackend string
	disassemble    bool
)

// compileCmd is the pipeline stopped before loading/execution: lex ->
// parse -> type-check -> lower -> seal, reporting the sealed buffer's
// size and symbols. Nothing is written to disk; there is no persisted
// object-file format.
var compileCmd = &cobra.Command{
	Use:   "compile <file>",
	Short: "Compile a gots source file without executing it",
	Args:  cobra.ExactArgs(1),
	RunE:  compileScript,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().StringVar(&compileBackend, "backend", "x86", "target backend: x86 or stackvm")
	compileCmd.Flags().BoolVar(&disassemble, "disassemble", false, "show disassembled output (stackvm backend only)")
}

func compileScript(cmd *cobra.Command, args []string) error {
	path := args[0]

	kind := compiler.BackendX86
	if compileBackend == "stackvm" {
		kind = compiler.BackendStackVM
	}

	res, err := compiler.CompileFileOpts(path, compiler.Options{Backend: kind, Production: production})
	if err != nil {
		reportError(err)
		return err
	}

	fmt.Printf("Compiled %s\n", path)
	fmt.Printf("  backend:    %s\n", compileBackend)
	fmt.Printf("  code bytes: %d\n", len(res.Backend.Bytes()))
	fmt.Printf("  labels:     %d\n", len(res.Backend.Labels()))
	if res.HasEntry {
		fmt.Printf("  entry:      %s\n", res.EntryLabel)
	}
	for name, arity := range res.FuncArity {
		fmt.Printf("  func %-20s arity=%d\n", name, arity)
	}

	if disassemble {
		if kind != compiler.BackendStackVM {
			fmt.Fprintln(os.Stderr, "gots: --disassemble is only supported for --backend=stackvm")
		} else if svm, ok := res.Backend.(*stackvm.Backend); ok {
			fmt.Println()
			stackvm.NewDisassembler(svm, os.Stdout).Disassemble()
		}
	}

	return nil
}

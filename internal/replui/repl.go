// Package replui implements the interactive REPL: a liner-backed prompt
// loop with command history, `:`-prefixed meta commands, and colorized
// result/error output. Each accepted line is run through the same
// compile -> load -> invoke pipeline cmd/gots's run subcommand uses, so
// the REPL exercises the real JIT pipeline rather than a separate
// tree-walking evaluator.
package replui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/turbobuilt/gots/internal/compiler"
	"github.com/turbobuilt/gots/internal/diagnostics"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	dim   = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

// REPL is a single interactive session: one liner.State, one history list,
// and the backend/production settings each submitted line compiles with.
type REPL struct {
	Backend    compiler.BackendKind
	Production bool

	history []string
}

// New returns a REPL configured for the native x86 backend, non-production
// mode — the same defaults `gots run` uses.
func New() *REPL {
	return &REPL{Backend: compiler.BackendX86}
}

var metaCommands = []string{":help", ":quit", ":exit", ":history", ":clear"}

// Start runs the read-eval-print loop until EOF (Ctrl-D) or a
// `:quit`/`:exit` command. Lines are read through liner from the
// process's terminal; in is not read. Banner, results and errors go to
// out.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	historyFile := filepath.Join(os.TempDir(), ".gots_history")
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}

	line.SetCompleter(func(partial string) (c []string) {
		if strings.HasPrefix(partial, ":") {
			for _, cmd := range metaCommands {
				if strings.HasPrefix(cmd, partial) {
					c = append(c, cmd)
				}
			}
		}
		return
	})

	fmt.Fprintf(out, "%s\n", bold("gots repl"))
	fmt.Fprintln(out, dim("Type :help for help, :quit to exit."))
	fmt.Fprintln(out)

	for {
		input, err := line.Prompt("gots> ")
		if err == io.EOF {
			fmt.Fprintln(out, green("goodbye"))
			break
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", red("error"), err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)
		r.history = append(r.history, input)

		if strings.HasPrefix(input, ":") {
			if r.handleMeta(input, out) {
				break
			}
			continue
		}

		r.evalLine(input, out)
	}

	if f, err := os.Create(historyFile); err == nil {
		_, _ = line.WriteHistory(f)
		f.Close()
	}
}

// handleMeta dispatches a `:`-prefixed command; it returns true when the
// session should terminate.
func (r *REPL) handleMeta(input string, out io.Writer) bool {
	switch {
	case input == ":quit" || input == ":exit" || input == ":q":
		fmt.Fprintln(out, green("goodbye"))
		return true
	case input == ":help":
		fmt.Fprintln(out, "  :help      show this message")
		fmt.Fprintln(out, "  :history   show input history for this session")
		fmt.Fprintln(out, "  :clear     clear the session's input history")
		fmt.Fprintln(out, "  :quit      exit the repl")
	case input == ":history":
		for i, h := range r.history {
			fmt.Fprintf(out, "%4d  %s\n", i+1, h)
		}
	case input == ":clear":
		r.history = nil
	default:
		fmt.Fprintf(out, "%s: unknown command %q\n", red("error"), input)
	}
	return false
}

// evalLine compiles a single line as its own program, loads it into
// executable memory, and invokes its synthetic entry. A line ending in
// console.log(expr) prints the value the entry hands back; any other
// line runs for effect only.
func (r *REPL) evalLine(input string, out io.Writer) {
	res, err := compiler.CompileOpts(input, "<repl>", compiler.Options{
		Backend:    r.Backend,
		Production: r.Production,
	})
	if err != nil {
		reportError(err, out)
		return
	}
	if r.Backend != compiler.BackendX86 {
		fmt.Fprintf(out, "%s: compiled ok (%s backend does not execute in the repl)\n", dim("note"), "stackvm")
		return
	}

	region, err := compiler.Load(res)
	if err != nil {
		reportError(err, out)
		return
	}
	defer func() { _ = region }() // stays mapped for the process lifetime

	if !res.HasEntry {
		return
	}
	entry, ok := res.Registry.ByName(res.EntryLabel)
	if !ok {
		fmt.Fprintf(out, "%s: entry missing from registry after load\n", red("error"))
		return
	}
	result := compiler.InvokeEntry(entry.Address)
	if res.PrintsResult {
		fmt.Fprintln(out, compiler.FormatResult(res, result))
	}
}

func reportError(err error, out io.Writer) {
	if list, ok := err.(diagnostics.List); ok {
		fmt.Fprintln(out, red(list.Error()))
		return
	}
	if cerr, ok := err.(*diagnostics.CompilerError); ok {
		fmt.Fprintln(out, red(cerr.Format(false)))
		return
	}
	fmt.Fprintln(out, red(err.Error()))
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/turbobuilt/gots/internal/compiler"
	"github.com/turbobuilt/gots/internal/diagnostics"
	"github.com/turbobuilt/gots/internal/module"
	"github.com/turbobuilt/gots/internal/sourcewatch"
	"github.com/turbobuilt/gots/internal/task"
)

// runCmd mirrors the root command's default behavior (`gots file.gts` ==
// `gots run file.gts`) as an explicit subcommand.
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile and execute a gots source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFile(args[0], production, watch)
	},
}

func init() { rootCmd.AddCommand(runCmd) }

// runFile drives one full pass: source -> tokens -> AST -> typed AST ->
// code buffer + label table -> mapped pages + registered symbols ->
// entry invoked -> join-all. When watch is set it re-runs on a change to
// the entry file or any file it transitively imports.
func runFile(path string, production, watch bool) error {
	if !watch {
		return compileLoadAndRun(path, production)
	}
	return watchAndRun(path, production)
}

// compileLoadAndRun is the non-watch path: one compile+load+invoke pass,
// propagating any error so main exits non-zero.
func compileLoadAndRun(path string, production bool) error {
	res, err := compiler.CompileFileOpts(path, compiler.Options{
		Backend:    compiler.BackendX86,
		Production: production,
	})
	if err != nil {
		reportError(err)
		return err
	}

	region, err := compiler.Load(res)
	if err != nil {
		reportError(err)
		return err
	}

	if !res.HasEntry {
		return nil
	}
	entry, ok := res.Registry.ByName(res.EntryLabel)
	if !ok {
		err := fmt.Errorf("gots: entry %q missing from function registry after load", res.EntryLabel)
		reportError(err)
		return err
	}

	// Start the task runtime before entering generated code: spawn sites
	// and timer schedules inside the program route straight into it, and
	// JoinAll below holds the process open until every spawned task has
	// settled.
	sched := task.NewScheduler()
	sched.Start()

	result := compiler.InvokeEntry(entry.Address)
	if res.PrintsResult {
		fmt.Println(compiler.FormatResult(res, result))
	}

	// Fire any timers the program scheduled on the main task, then wait
	// for every spawned task to settle.
	sched.RunTimers()
	if err := sched.JoinAll(); err != nil {
		reportError(err)
		return err
	}

	_ = region // stays mapped for the process lifetime; tasks may still call into it
	return nil
}

// watchAndRun runs once, then re-runs on a change to the entry file or
// any transitively imported module file, debounced, until a termination
// signal triggers a graceful shutdown. A failed run keeps the watcher
// alive; the next change gets a fresh chance.
func watchAndRun(path string, production bool) error {
	runOnce := func() {
		if err := compileLoadAndRun(path, production); err != nil {
			fmt.Fprintln(os.Stderr, "gots: run failed, watching for changes...")
		}
	}
	runOnce()

	w, err := sourcewatch.New()
	if err != nil {
		return fmt.Errorf("gots: watch: %w", err)
	}
	defer w.Close()

	for _, p := range watchedFiles(path) {
		if err := w.Track(p); err != nil {
			return fmt.Errorf("gots: watch: %w", err)
		}
	}

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	return w.Run(stop, runOnce)
}

// watchedFiles best-effort resolves the entry file's transitive import
// graph via internal/module.Loader, so watch mode re-runs on a change to
// an imported file, not just the entry file itself. A module that fails
// to resolve or parse is simply not added to the watch list; it will
// surface as the normal compile error on the next run.
func watchedFiles(path string) []string {
	loader := module.NewLoader()
	if _, err := loader.Load(path, ""); err != nil {
		return []string{path}
	}
	return loader.LoadedPaths()
}

func reportError(err error) {
	if list, ok := err.(diagnostics.List); ok {
		fmt.Fprintln(os.Stderr, list.Error())
		return
	}
	if cerr, ok := err.(*diagnostics.CompilerError); ok {
		fmt.Fprintln(os.Stderr, cerr.Format(true))
		return
	}
	fmt.Fprintln(os.Stderr, "gots:", err)
}

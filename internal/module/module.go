// Package module implements the module loader: path resolution with the
// `./ ../` plus suffix-try rules, a cache keyed by resolved path,
// recursive import expansion, and circular-import tolerance through the
// unloaded/loading/loaded/partial/error state machine. A module observed
// while still loading does not abort the load; the importer receives a
// partial view and tolerates later completions, so cyclic import graphs
// always terminate.
package module

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/diagnostics"
	"github.com/turbobuilt/gots/internal/parser"
)

// State is one node of a module record's lifecycle.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
	Partial
	Error
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Partial:
		return "partial"
	case Error:
		return "error"
	}
	return "unknown"
}

// suffixes tried, in order, when a bare or extensionless path does not
// resolve directly.
var suffixes = []string{"", ".gts", ".ts", ".js"}

// Module is one loaded source file's record, shared by every importer
// that resolves to the same path. The Partial flag and Exports map are
// mutated in place on this shared pointer, so an importer holding onto
// a *Module observed mid-cycle sees a live view, not a frozen snapshot.
type Module struct {
	mu             sync.Mutex
	ResolvedPath   string
	State          State
	AST            *ast.Program
	Exports        map[string]ast.Statement
	ExportsPartial bool
	ImportStack    []string // path list from outermost importer to this module, snapshotted at load start
	Err            error
}

// snapshot returns a read consistent view of the module's mutable
// fields, used by importers that only need to look at state once.
func (m *Module) snapshot() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.State, m.ExportsPartial
}

// Loader resolves, parses, and caches modules.
type Loader struct {
	mu         sync.Mutex
	cache      map[string]*Module
	loadStack  []string // resolved paths currently being loaded, outermost first
	parseCount map[string]int
}

func NewLoader() *Loader {
	return &Loader{
		cache:      map[string]*Module{},
		parseCount: map[string]int{},
	}
}

// Resolve maps an import request to an absolute file path: relative
// paths are joined against the importer's directory; every candidate is
// tried with each suffix in turn; first hit wins.
func (l *Loader) Resolve(path, importer string) (string, error) {
	candidate := path
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") {
		dir := "."
		if importer != "" {
			dir = filepath.Dir(importer)
		}
		candidate = filepath.Join(dir, path)
	}
	for _, suf := range suffixes {
		try := candidate + suf
		if info, err := os.Stat(try); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(try)
			if err != nil {
				return "", err
			}
			return abs, nil
		}
	}
	return "", &diagnostics.CompilerError{
		Kind:    diagnostics.ModuleNotFound,
		Message: "module not found: " + path,
		File:    importer,
		Stack:   append(append([]string{}, l.loadStack...), path),
	}
}

// Load fetches a module: cache lookup, circular-edge tolerance,
// recursive import expansion, and the unloaded -> loading -> loaded
// (or -> partial on cycle observation) transitions.
func (l *Loader) Load(path, importer string) (*Module, error) {
	resolved, err := l.Resolve(path, importer)
	if err != nil {
		return nil, err
	}
	return l.loadResolved(resolved)
}

func (l *Loader) loadResolved(resolved string) (*Module, error) {
	l.mu.Lock()
	if mod, ok := l.cache[resolved]; ok {
		state, _ := mod.snapshot()
		if state == Loaded || state == Loading || state == Partial {
			if state == Loading {
				// Observed mid-load: a circular-import edge.
				mod.mu.Lock()
				mod.State = Partial
				mod.mu.Unlock()
			}
			l.mu.Unlock()
			return mod, nil
		}
	}
	mod := &Module{
		ResolvedPath: resolved,
		State:        Loading,
		Exports:      map[string]ast.Statement{},
		ImportStack:  append([]string{}, l.loadStack...),
	}
	l.cache[resolved] = mod
	l.loadStack = append(l.loadStack, resolved)
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if n := len(l.loadStack); n > 0 && l.loadStack[n-1] == resolved {
			l.loadStack = l.loadStack[:n-1]
		}
		l.mu.Unlock()
	}()

	src, err := os.ReadFile(resolved)
	if err != nil {
		l.fail(mod, err)
		return nil, err
	}

	l.mu.Lock()
	l.parseCount[resolved]++
	l.mu.Unlock()

	p := parser.New(string(src), resolved)
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		cerr := errs[0]
		l.fail(mod, cerr)
		return nil, cerr
	}
	mod.AST = prog

	l.declareExports(mod, prog)

	for _, stmt := range prog.Statements {
		imp, ok := stmt.(*ast.ImportStatement)
		if !ok {
			continue
		}
		dep, err := l.Load(imp.Path, resolved)
		if err != nil {
			l.fail(mod, err)
			return nil, err
		}
		// A partial dependency is tolerated: the importer reads whatever
		// is currently in dep.Exports, and since dep is a shared pointer
		// it sees later completions too.
		_, _ = dep.snapshot()
	}

	mod.mu.Lock()
	mod.State = Loaded
	mod.ExportsPartial = false
	mod.mu.Unlock()
	return mod, nil
}

// declareExports walks top-level statements, recording export bindings.
// Exports declared partway through a file (observed via a circular
// import before this module finishes) are marked ExportsPartial so the
// importer knows more may still arrive.
func (l *Loader) declareExports(mod *Module, prog *ast.Program) {
	mod.mu.Lock()
	mod.ExportsPartial = true
	mod.mu.Unlock()
	for _, stmt := range prog.Statements {
		exp, ok := stmt.(*ast.ExportStatement)
		if !ok {
			continue
		}
		name := exportedName(exp.Decl)
		if name == "" {
			name = "default"
		}
		mod.mu.Lock()
		mod.Exports[name] = exp.Decl
		mod.mu.Unlock()
	}
}

func exportedName(decl ast.Statement) string {
	switch d := decl.(type) {
	case *ast.FunctionDeclaration:
		return d.Name
	case *ast.ClassDeclaration:
		return d.Name
	case *ast.VarDeclaration:
		return d.Name
	}
	return ""
}

func (l *Loader) fail(mod *Module, err error) {
	mod.mu.Lock()
	mod.State = Error
	mod.Err = err
	mod.mu.Unlock()
}

// ParseCount returns the number of times a resolved path was actually
// read and parsed. Loading the same path twice parses it at most once.
func (l *Loader) ParseCount(resolved string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.parseCount[resolved]
}

// Cached returns the module record for a resolved path, if any.
func (l *Loader) Cached(resolved string) (*Module, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.cache[resolved]
	return m, ok
}

// LoadedPaths returns every resolved path this Loader has ever loaded
// (including partially-loaded cycle participants), the transitive file
// set cmd/gots's `-w/--watch` mode needs in order to re-run on a change
// to any imported module, not just the entry file.
func (l *Loader) LoadedPaths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	paths := make([]string, 0, len(l.cache))
	for p := range l.cache {
		paths = append(paths, p)
	}
	return paths
}

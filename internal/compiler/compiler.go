// Package compiler drives the end-to-end pipeline: source -> tokens ->
// AST -> type-annotated AST -> code buffer + label table -> mapped code
// pages + registered symbols. It is the glue between internal/lexer,
// internal/parser, internal/semantic, internal/codegen (either backend),
// internal/linker and internal/task that cmd/gots drives from the CLI.
package compiler

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/turbobuilt/gots/internal/allocruntime"
	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/codegen"
	"github.com/turbobuilt/gots/internal/codegen/stackvm"
	"github.com/turbobuilt/gots/internal/codegen/x86"
	"github.com/turbobuilt/gots/internal/diagnostics"
	"github.com/turbobuilt/gots/internal/linker"
	"github.com/turbobuilt/gots/internal/parser"
	"github.com/turbobuilt/gots/internal/semantic"
	"github.com/turbobuilt/gots/internal/task"
	"github.com/turbobuilt/gots/internal/types"
)

// Result is everything a successful compile produced: the sealed backend
// (for Offset/Labels/Bytes introspection), the function registry entries
// for every lowered function, and the entry label for the synthetic
// top-level "_main" region (see lower.go), if one was emitted.
type Result struct {
	Backend    codegen.Backend
	Registry   *linker.Registry
	EntryLabel string
	HasEntry   bool

	// PrintsResult reports that the entry returns the value of a final
	// console.log statement, which the host should print after invoking
	// it; PrintType is that expression's static type, so FormatResult
	// can render the returned machine word.
	PrintsResult bool
	PrintType    *types.Type

	Classes   *semantic.ClassRegistry
	ClassIDs  map[string]int
	FuncArity map[string]int
}

// BackendKind selects which codegen.Backend implementation drives a
// compile: the native x86-64 backend or the portable stack machine.
type BackendKind int

const (
	BackendX86 BackendKind = iota
	BackendStackVM
)

// Parse runs the lexer and parser over source, returning the AST or the
// accumulated *ParseError list.
func Parse(source, file string) (*ast.Program, diagnostics.List) {
	p := parser.New(source, file)
	prog := p.ParseProgram()
	return prog, p.Errors()
}

// Check runs the type inferencer over an already-parsed program,
// returning the class registry it built (needed by lowering for
// instance layout) and any *TypeError diagnostics.
func Check(prog *ast.Program, file, source string) (*semantic.ClassRegistry, diagnostics.List) {
	inf := semantic.New(file, source)
	errs := inf.Infer(prog)
	return inf.Classes(), errs
}

// Options configures a compile beyond the backend choice. Production is
// the `-p/--production` switch: emit without guard instructions, which
// today means dropping the safepoint polls the lowerer otherwise places
// at loop back-edges.
type Options struct {
	Backend    BackendKind
	Production bool
}

// Compile runs lex -> parse -> type-check -> lower -> seal, without
// mapping or executing anything.
func Compile(source, file string, kind BackendKind) (*Result, error) {
	return CompileOpts(source, file, Options{Backend: kind})
}

// CompileOpts is Compile with the full Options struct, the entry point
// cmd/gots uses so -p/--production has a path through to the lowerer.
func CompileOpts(source, file string, opts Options) (*Result, error) {
	prog, perrs := Parse(source, file)
	if len(perrs) > 0 {
		return nil, perrs
	}
	classes, terrs := Check(prog, file, source)
	if len(terrs) > 0 {
		return nil, terrs
	}

	var backend codegen.Backend
	switch opts.Backend {
	case BackendStackVM:
		backend = stackvm.New()
	default:
		backend = x86.New(
			x86.WithRuntimeEntries(runtimeEntries()),
			x86.WithRuntimeGate(task.GateAddress()),
		)
	}

	reg := linker.NewRegistry()
	lw := newLowerer(backend, reg, opts.Backend, classes)
	lw.production = opts.Production
	if err := lw.lowerProgram(prog); err != nil {
		return nil, err
	}
	if err := backend.Seal(); err != nil {
		return nil, err
	}

	arity := map[string]int{}
	for name, n := range lw.funcArity {
		arity[name] = n
	}
	if lw.entryLabel != "" {
		arity[lw.entryLabel] = 0
	}

	return &Result{
		Backend:      backend,
		Registry:     reg,
		EntryLabel:   lw.entryLabel,
		HasEntry:     lw.entryLabel != "",
		PrintsResult: lw.printsResult,
		PrintType:    lw.printType,
		Classes:      classes,
		ClassIDs:     lw.classIDs,
		FuncArity:    arity,
	}, nil
}

// CompileFile reads path and compiles it, the shape cmd/gots's run/compile
// subcommands call directly.
func CompileFile(path string, kind BackendKind) (*Result, error) {
	return CompileFileOpts(path, Options{Backend: kind})
}

// CompileFileOpts is CompileFile plumbed through the full Options struct.
func CompileFileOpts(path string, opts Options) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compiler: read %s: %w", path, err)
	}
	return CompileOpts(string(src), path, opts)
}

// Load maps Result's sealed code buffer into executable memory via
// internal/linker.Loader and rebuilds Result.Registry from the now-known
// absolute addresses. internal/linker.RegisterEntries excludes
// "__"-prefixed internal labels (control-flow targets, task-body
// literals, runtime trampolines) from the registry, leaving only
// callable functions and the synthetic entry point. Only the x86 backend
// produces machine code a region can execute; calling Load for a
// stack-machine Result is a programming error.
func Load(res *Result) (*linker.Region, error) {
	loader := linker.NewLoader()
	region, err := loader.Load(res.Backend.Bytes())
	if err != nil {
		return nil, err
	}
	res.Registry = linker.RegisterEntries(region, res.Backend.Labels(), res.FuncArity)
	registerTypeInfos(res)
	return region, nil
}

// registerTypeInfos declares each compiled class's layout (and the any
// box's) to the allocator, so a collecting implementation knows which
// words of an instance hold references.
func registerTypeInfos(res *Result) {
	al := allocruntime.Default()
	al.RegisterType(allocruntime.TypeInfo{
		ID: anyBoxTypeID, Name: "any.box", Size: 16, ReferenceOffsets: []int{8},
	})
	for name, id := range res.ClassIDs {
		ci, ok := res.Classes.Get(name)
		if !ok {
			continue
		}
		var refs []int
		for _, f := range ci.Fields {
			if f.Type != nil && (f.Type.Kind == types.ClassInstance || f.Type.Kind == types.Any) {
				refs = append(refs, f.Offset*8)
			}
		}
		al.RegisterType(allocruntime.TypeInfo{
			ID: id, Name: name, Size: ci.InstanceSize, ReferenceOffsets: refs,
		})
	}
}

// FormatResult renders the machine word a program's entry returned
// according to the final console.log expression's static type: interned
// strings print their text, floats decode their bit pattern, booleans
// print true/false, everything else prints as an integer.
func FormatResult(res *Result, v int64) string {
	if res == nil || res.PrintType == nil {
		return strconv.FormatInt(v, 10)
	}
	switch res.PrintType.Kind {
	case types.String:
		if s, ok := StringByID(v); ok {
			return s
		}
	case types.Float32, types.Float64:
		return strconv.FormatFloat(math.Float64frombits(uint64(v)), 'g', -1, 64)
	case types.Bool:
		if v != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.FormatInt(v, 10)
}

package compiler

import (
	"fmt"
	"math"

	"github.com/turbobuilt/gots/internal/ast"
	"github.com/turbobuilt/gots/internal/codegen"
	"github.com/turbobuilt/gots/internal/linker"
	"github.com/turbobuilt/gots/internal/semantic"
	"github.com/turbobuilt/gots/internal/task"
	"github.com/turbobuilt/gots/internal/types"
)

// maxArgRegs bounds how many parameters the calling convention
// supports: arguments are placed in argReg(0)..argReg(3) by the caller
// immediately before CallLabel, and copied out to their frame slots by
// the callee's own prologue code. Methods spend argReg(0) on the
// receiver, leaving three declared parameters.
const maxArgRegs = 4

// maxSpawnArgs caps arguments at a spawn or timer site: the runtime
// entry's own convention claims the first two argument registers for
// the body address and count, and carries at most four value words.
const maxSpawnArgs = 4

// x86ArgRegs is the argument register sequence, matching the order the
// host passes integer arguments in (rax, rbx, rcx, rdi; rdx is the
// closure-context register and is skipped), so a function can be
// entered from the host with a typed func value and a spawned body
// finds its arguments exactly where a direct caller would put them.
// x86SpawnArgRegs continues the same sequence from position 2 (rcx,
// rdi, rsi, r8), where the spawn entry reads its value words.
// x86TempRegs is the scratch pool, disjoint from x86ArgRegs and from
// the backend's own r10/r11 scratch; it shares rsi and r8 with
// x86SpawnArgRegs, which a spawn site fills only after all its
// arguments are evaluated. r14 and r15 are never touched, the host
// runtime owns them.
var (
	x86ArgRegs      = []codegen.Reg{0, 3, 1, 7}
	x86SpawnArgRegs = []codegen.Reg{1, 7, 6, 8}
	x86TempRegs     = []codegen.Reg{6, 8, 9, 12, 13}
)

// pendingLiteral is a function expression awaiting emission into its
// own labeled region. Task bodies and timer callbacks are never emitted
// inline at the call site; the site references the body by address and
// the body itself is emitted here, after the enclosing function is
// done.
type pendingLiteral struct {
	label  string
	params []*ast.Param
	body   *ast.BlockStatement
}

// lowerer walks the typed AST and drives a codegen.Backend to emit it.
// Each function body gets its own frame-slot map, reset per function,
// the way a real compiler allocates one activation record per function.
//
// The value model is one machine word per value: integers and booleans
// directly, floats as their bit pattern, strings as interned table
// indexes, class instances as heap base addresses from the allocator
// entry, promises as runtime handles, and `any` values as the address
// of a two-word kind/payload box. Float arithmetic and string
// concatenation have no native emission yet and report a descriptive
// error rather than producing integer instructions over bit patterns.
type lowerer struct {
	backend    codegen.Backend
	registry   *linker.Registry
	kind       BackendKind
	classes    *semantic.ClassRegistry
	classIDs   map[string]int
	funcArity  map[string]int
	entryLabel string
	production bool // skip safepoint polls at loop back-edges

	// printsResult records that the synthetic entry returns the value of
	// a final console.log statement; printType is that expression's
	// static type, so the host can render the returned word.
	printsResult bool
	printType    *types.Type

	slots     map[string]int // local/param name -> frame slot index
	slotTypes map[string]*types.Type
	nextSlot  int
	nextTemp  int
	regErr    error

	breakLabels    []string
	continueLabels []string
	pendingLits    []pendingLiteral
	labelSeq       int
	litSeq         int
}

func newLowerer(backend codegen.Backend, registry *linker.Registry, kind BackendKind, classes *semantic.ClassRegistry) *lowerer {
	return &lowerer{
		backend:   backend,
		registry:  registry,
		kind:      kind,
		classes:   classes,
		classIDs:  map[string]int{},
		funcArity: map[string]int{},
	}
}

// frameOffset translates a logical frame slot into whatever LoadFrame/
// StoreFrame expect, which differs by backend: x86's Backend treats its
// offset argument as a signed rbp-relative byte displacement, while
// stackvm's Backend treats it as a literal, non-negative local-slot
// index.
func (lw *lowerer) frameOffset(slot int) int32 {
	if lw.kind == BackendStackVM {
		return int32(slot)
	}
	return int32(-8 * (slot + 1))
}

func (lw *lowerer) argReg(i int) codegen.Reg {
	if lw.kind == BackendStackVM {
		return codegen.Reg(i)
	}
	return x86ArgRegs[i]
}

func (lw *lowerer) spawnArgReg(i int) codegen.Reg {
	if lw.kind == BackendStackVM {
		return codegen.Reg(i + 2)
	}
	return x86SpawnArgRegs[i]
}

// allocTemp hands out the next scratch register. The x86 pool is small
// and fixed; running out means an expression nested deeper than the
// spill discipline handles, reported as a compile error rather than
// silently reusing a live register. The stack machine's "registers" are
// high local slots, disjoint from the first 64 reserved for declared
// locals.
func (lw *lowerer) allocTemp() codegen.Reg {
	i := lw.nextTemp
	lw.nextTemp++
	if lw.kind == BackendStackVM {
		return codegen.Reg(64 + i)
	}
	if i >= len(x86TempRegs) {
		if lw.regErr == nil {
			lw.regErr = fmt.Errorf("compiler: expression too deeply nested for the register allocator")
		}
		return x86TempRegs[len(x86TempRegs)-1]
	}
	return x86TempRegs[i]
}

func (lw *lowerer) resetTemps() { lw.nextTemp = 0 }

func (lw *lowerer) newLabel(stem string) string {
	lw.labelSeq++
	return fmt.Sprintf("__%s_%d", stem, lw.labelSeq)
}

// lowerProgram emits every top-level function into its own labeled
// region, then every class's constructor and methods, then, if the
// program has any other top-level statement, a synthetic zero-argument
// "_main" entry that evaluates them in order. Function literals queued
// as task bodies or timer callbacks are drained last.
func (lw *lowerer) lowerProgram(prog *ast.Program) error {
	var fns []*ast.FunctionDeclaration
	var decls []*ast.ClassDeclaration
	var rest []ast.Statement
	for _, stmt := range prog.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			fns = append(fns, s)
			lw.funcArity[s.Name] = len(s.Parameters)
		case *ast.ClassDeclaration:
			decls = append(decls, s)
			lw.classIDs[s.Name] = len(lw.classIDs) + 1 // id 0 is the any box
		default:
			rest = append(rest, stmt)
		}
	}

	for _, fd := range fns {
		if err := lw.lowerBody(fd.Name, fd.Parameters, fd.Body); err != nil {
			return err
		}
	}
	for _, cd := range decls {
		if err := lw.lowerClass(cd); err != nil {
			return err
		}
	}

	if len(rest) > 0 {
		lw.entryLabel = "_main"
		if err := lw.lowerMain(rest); err != nil {
			return err
		}
	}

	// A drained literal may itself queue more (a task body spawning
	// another task), so keep going until the queue is empty.
	for len(lw.pendingLits) > 0 {
		lit := lw.pendingLits[0]
		lw.pendingLits = lw.pendingLits[1:]
		if err := lw.lowerBody(lit.label, lit.params, lit.body); err != nil {
			return err
		}
	}
	return nil
}

// lowerClass emits the constructor and every method as an ordinary
// function whose label is qualified by the class name and whose hidden
// first parameter is the receiver.
func (lw *lowerer) lowerClass(cd *ast.ClassDeclaration) error {
	recv := &ast.Param{Name: "this"}
	if cd.Constructor != nil {
		params := append([]*ast.Param{recv}, cd.Constructor.Parameters...)
		label := cd.Name + ".constructor"
		lw.funcArity[label] = len(params)
		if err := lw.lowerBody(label, params, cd.Constructor.Body); err != nil {
			return err
		}
	}
	for _, m := range cd.Methods {
		params := append([]*ast.Param{recv}, m.Parameters...)
		label := cd.Name + "." + m.Name
		lw.funcArity[label] = len(params)
		if err := lw.lowerBody(label, params, m.Body); err != nil {
			return err
		}
	}
	return nil
}

func (lw *lowerer) lowerBody(label string, params []*ast.Param, body *ast.BlockStatement) error {
	lw.slots = map[string]int{}
	lw.slotTypes = map[string]*types.Type{}
	lw.nextSlot = 0
	for _, p := range params {
		lw.declareSlot(p.Name, resolveParamType(p))
	}

	lw.backend.Label(label)
	lw.backend.Prologue(frameSize(params, body.Statements))
	for i, p := range params {
		if i >= maxArgRegs {
			return fmt.Errorf("compiler: function %s takes more than %d parameters", label, maxArgRegs)
		}
		lw.backend.StoreFrame(lw.frameOffset(lw.slots[p.Name]), lw.argReg(i))
	}
	if err := lw.lowerBlock(body); err != nil {
		return err
	}
	lw.backend.Epilogue()
	return lw.takeRegErr()
}

func resolveParamType(p *ast.Param) *types.Type {
	if p.Type == nil {
		return types.TAny
	}
	return lowerTypeOf(p.Type)
}

// lowerTypeOf maps a syntactic annotation to its resolved type, the
// subset of names the lowering pass distinguishes.
func lowerTypeOf(t *ast.TypeExpr) *types.Type {
	switch t.Name {
	case "void":
		return types.TVoid
	case "int8":
		return types.Simple(types.Int8)
	case "int16":
		return types.Simple(types.Int16)
	case "int32":
		return types.Simple(types.Int32)
	case "int64":
		return types.TInt64
	case "uint8":
		return types.Simple(types.Uint8)
	case "uint16":
		return types.Simple(types.Uint16)
	case "uint32":
		return types.Simple(types.Uint32)
	case "uint64":
		return types.Simple(types.Uint64)
	case "float32":
		return types.Simple(types.Float32)
	case "float64":
		return types.TFloat64
	case "bool":
		return types.TBool
	case "string":
		return types.TString
	case "any":
		return types.TAny
	default:
		return types.ClassInstanceOf(t.Name)
	}
}

func (lw *lowerer) takeRegErr() error {
	err := lw.regErr
	lw.regErr = nil
	return err
}

func (lw *lowerer) lowerMain(statements []ast.Statement) error {
	lw.slots = map[string]int{}
	lw.slotTypes = map[string]*types.Type{}
	lw.nextSlot = 0
	lw.backend.Label("_main")
	lw.backend.Prologue(frameSize(nil, statements))
	returned := false
	for i, stmt := range statements {
		last := i == len(statements)-1
		if expr, ok := consoleLogArg(stmt); ok && last {
			returned = true
			lw.printsResult = true
			lw.printType = expr.GetType()
		}
		if err := lw.lowerTopStatement(stmt, last); err != nil {
			return err
		}
	}
	if !returned {
		lw.backend.Epilogue()
	}
	return lw.takeRegErr()
}

// consoleLogArg reports whether stmt is `console.log(<expr>);` and, if
// so, returns its single argument expression.
func consoleLogArg(stmt ast.Statement) (ast.Expression, bool) {
	es, ok := stmt.(*ast.ExpressionStatement)
	if !ok || es.Expr == nil {
		return nil, false
	}
	call, ok := es.Expr.(*ast.CallExpression)
	if !ok || len(call.Arguments) != 1 {
		return nil, false
	}
	member, ok := call.Callee.(*ast.MemberExpression)
	if !ok {
		return nil, false
	}
	obj, ok := member.Object.(*ast.Identifier)
	if !ok || obj.Value != "console" || member.Property != "log" {
		return nil, false
	}
	return call.Arguments[0], true
}

// lowerTopStatement handles one top-level statement inside the
// synthetic main entry. A final `console.log(expr)` becomes a Return of
// expr's value — printing the returned word is the host's job once JIT
// execution returns. A non-final console.log evaluates its argument for
// effect only.
func (lw *lowerer) lowerTopStatement(stmt ast.Statement, isFinal bool) error {
	if expr, ok := consoleLogArg(stmt); ok && isFinal {
		lw.resetTemps()
		r, err := lw.lowerExpr(expr)
		if err != nil {
			return err
		}
		return lw.emitReturnFromReg(r)
	}
	return lw.lowerStatement(stmt)
}

func (lw *lowerer) emitReturnFromReg(r codegen.Reg) error {
	lw.backend.MovReg(0, r)
	lw.backend.Epilogue()
	return nil
}

func (lw *lowerer) declareSlot(name string, t *types.Type) int {
	slot := lw.nextSlot
	lw.nextSlot++
	lw.slots[name] = slot
	if t != nil {
		lw.slotTypes[name] = t
	}
	return slot
}

func (lw *lowerer) lowerBlock(b *ast.BlockStatement) error {
	for _, stmt := range b.Statements {
		if err := lw.lowerStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func staticKind(e ast.Expression) types.Kind {
	if e == nil {
		return types.Any
	}
	if t := e.GetType(); t != nil {
		return t.Kind
	}
	return types.Any
}

func (lw *lowerer) lowerStatement(stmt ast.Statement) error {
	lw.resetTemps()
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		return lw.lowerVarDecl(s)
	case *ast.ReturnStatement:
		if s.Value == nil {
			lw.backend.Epilogue()
			return nil
		}
		r, err := lw.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		return lw.emitReturnFromReg(r)
	case *ast.ExpressionStatement:
		if s.Expr == nil {
			return nil
		}
		if expr, ok := consoleLogArg(s); ok {
			_, err := lw.lowerExpr(expr)
			return err
		}
		_, err := lw.lowerExpr(s.Expr)
		return err
	case *ast.IfStatement:
		return lw.lowerIf(s)
	case *ast.WhileStatement:
		return lw.lowerWhile(s)
	case *ast.ForStatement:
		return lw.lowerFor(s)
	case *ast.SwitchStatement:
		return lw.lowerSwitch(s)
	case *ast.BreakStatement:
		if len(lw.breakLabels) == 0 {
			return fmt.Errorf("compiler: break outside loop or switch")
		}
		lw.backend.Jump(lw.breakLabels[len(lw.breakLabels)-1])
		return nil
	case *ast.ContinueStatement:
		if len(lw.continueLabels) == 0 {
			return fmt.Errorf("compiler: continue outside loop")
		}
		lw.backend.Jump(lw.continueLabels[len(lw.continueLabels)-1])
		return nil
	case *ast.BlockStatement:
		return lw.lowerBlock(s)
	default:
		return fmt.Errorf("compiler: statement %T not supported by this lowering pass", stmt)
	}
}

// lowerVarDecl binds a slot and stores the initializer. A value of a
// concrete static type flowing into an `any` variable is boxed here, so
// that everything an any-typed slot ever holds is a kind/payload box.
func (lw *lowerer) lowerVarDecl(s *ast.VarDeclaration) error {
	declared := declaredVarType(s)
	slot := lw.declareSlot(s.Name, declared)
	if s.Initializer == nil {
		return nil
	}
	r, err := lw.lowerExpr(s.Initializer)
	if err != nil {
		return err
	}
	if declared.Kind == types.Any {
		if k := staticKind(s.Initializer); k != types.Any {
			r = lw.boxValue(r, k)
		}
	}
	lw.backend.StoreFrame(lw.frameOffset(slot), r)
	return nil
}

func declaredVarType(s *ast.VarDeclaration) *types.Type {
	if s.Type != nil {
		return lowerTypeOf(s.Type)
	}
	if s.Initializer != nil {
		if t := s.Initializer.GetType(); t != nil {
			return t
		}
	}
	return types.TAny
}

// boxValue wraps a one-word value of a known kind into a heap box the
// `any` representation uses: word 0 the kind, word 1 the payload. The
// value is spilled across the allocation call, which clobbers the
// scratch pool.
func (lw *lowerer) boxValue(val codegen.Reg, kind types.Kind) codegen.Reg {
	slot := lw.declareSlot(lw.newLabel("boxval"), nil)
	lw.backend.StoreFrame(lw.frameOffset(slot), val)
	lw.resetTemps()
	box := lw.allocTemp()
	lw.backend.AllocObject(box, 16, anyBoxTypeID)
	tag := lw.allocTemp()
	lw.backend.MovImm(tag, int64(kind))
	lw.backend.StoreField(box, 0, tag)
	v := lw.allocTemp()
	lw.backend.LoadFrame(v, lw.frameOffset(slot))
	lw.backend.StoreField(box, 8, v)
	return box
}

func (lw *lowerer) lowerIf(s *ast.IfStatement) error {
	elseLabel := lw.newLabel("if_else")
	endLabel := lw.newLabel("if_end")

	cond, err := lw.lowerCond(s.Condition)
	if err != nil {
		return err
	}
	lw.backend.JumpIfFalse(cond, elseLabel)
	if err := lw.lowerStatement(s.Consequence); err != nil {
		return err
	}
	lw.backend.Jump(endLabel)
	lw.backend.Label(elseLabel)
	if s.Alternative != nil {
		if err := lw.lowerStatement(s.Alternative); err != nil {
			return err
		}
	}
	lw.backend.Label(endLabel)
	return nil
}

func (lw *lowerer) lowerWhile(s *ast.WhileStatement) error {
	start := lw.newLabel("while_start")
	end := lw.newLabel("while_end")

	lw.backend.Label(start)
	lw.resetTemps()
	cond, err := lw.lowerCond(s.Condition)
	if err != nil {
		return err
	}
	lw.backend.JumpIfFalse(cond, end)

	lw.breakLabels = append(lw.breakLabels, end)
	lw.continueLabels = append(lw.continueLabels, start)
	err = lw.lowerBlock(s.Body)
	lw.breakLabels = lw.breakLabels[:len(lw.breakLabels)-1]
	lw.continueLabels = lw.continueLabels[:len(lw.continueLabels)-1]
	if err != nil {
		return err
	}

	lw.emitBackEdge(start)
	lw.backend.Label(end)
	return nil
}

// emitBackEdge closes a loop: a safepoint poll so a collecting
// allocator can pause the task mid-loop, then the jump. Production
// builds drop the poll along with the other guard instructions.
func (lw *lowerer) emitBackEdge(start string) {
	if !lw.production {
		lw.backend.SafepointPoll()
	}
	lw.backend.Jump(start)
}

func (lw *lowerer) lowerFor(s *ast.ForStatement) error {
	start := lw.newLabel("for_start")
	post := lw.newLabel("for_post")
	end := lw.newLabel("for_end")

	if s.Init != nil {
		if err := lw.lowerStatement(s.Init); err != nil {
			return err
		}
	}
	lw.backend.Label(start)
	if s.Condition != nil {
		lw.resetTemps()
		cond, err := lw.lowerCond(s.Condition)
		if err != nil {
			return err
		}
		lw.backend.JumpIfFalse(cond, end)
	}

	lw.breakLabels = append(lw.breakLabels, end)
	lw.continueLabels = append(lw.continueLabels, post)
	err := lw.lowerBlock(s.Body)
	lw.breakLabels = lw.breakLabels[:len(lw.breakLabels)-1]
	lw.continueLabels = lw.continueLabels[:len(lw.continueLabels)-1]
	if err != nil {
		return err
	}

	lw.backend.Label(post)
	if s.Post != nil {
		if err := lw.lowerStatement(s.Post); err != nil {
			return err
		}
	}
	lw.emitBackEdge(start)
	lw.backend.Label(end)
	return nil
}

// lowerSwitch spills the subject into a dedicated frame slot, emits one
// test per case value jumping to that case's body label, then a jump to
// default (or the end), then the bodies in declaration order so a case
// without a trailing break falls through to the next, and `break` jumps
// past the whole statement.
//
// A statically typed subject gets a plain compare chain with no runtime
// involvement. An `any`-typed subject holds a kind/payload box, so each
// test dispatches through the runtime equality helper with the case
// label's static kind and payload, which is what lets a mixed-type case
// list match correctly.
func (lw *lowerer) lowerSwitch(s *ast.SwitchStatement) error {
	end := lw.newLabel("switch_end")
	subjSlot := lw.declareSlot(lw.newLabel("switch_subj"), nil)
	anySubject := staticKind(s.Subject) == types.Any

	subj, err := lw.lowerExpr(s.Subject)
	if err != nil {
		return err
	}
	lw.backend.StoreFrame(lw.frameOffset(subjSlot), subj)

	bodyLabels := make([]string, len(s.Cases))
	defaultLabel := end
	for i, c := range s.Cases {
		bodyLabels[i] = lw.newLabel("switch_case")
		if c.IsDefault {
			defaultLabel = bodyLabels[i]
		}
	}

	for i, c := range s.Cases {
		for _, v := range c.Values {
			lw.resetTemps()
			if anySubject {
				err = lw.emitAnyCaseTest(subjSlot, v, bodyLabels[i])
			} else {
				err = lw.emitTypedCaseTest(subjSlot, v, bodyLabels[i])
			}
			if err != nil {
				return err
			}
		}
	}
	lw.backend.Jump(defaultLabel)

	lw.breakLabels = append(lw.breakLabels, end)
	for i, c := range s.Cases {
		lw.backend.Label(bodyLabels[i])
		for _, bs := range c.Body {
			if err := lw.lowerStatement(bs); err != nil {
				lw.breakLabels = lw.breakLabels[:len(lw.breakLabels)-1]
				return err
			}
		}
	}
	lw.breakLabels = lw.breakLabels[:len(lw.breakLabels)-1]
	lw.backend.Label(end)
	return nil
}

func (lw *lowerer) emitTypedCaseTest(subjSlot int, v ast.Expression, body string) error {
	vr, err := lw.lowerExpr(v)
	if err != nil {
		return err
	}
	sr := lw.allocTemp()
	lw.backend.LoadFrame(sr, lw.frameOffset(subjSlot))
	lw.backend.Compare(sr, vr)
	miss := lw.allocTemp()
	lw.backend.SetCond(miss, codegen.CondNE)
	// miss is 0 exactly when the subject matches, and JumpIfFalse jumps
	// on 0, so a match lands on the body.
	lw.backend.JumpIfFalse(miss, body)
	return nil
}

func (lw *lowerer) emitAnyCaseTest(subjSlot int, v ast.Expression, body string) error {
	kind := staticKind(v)
	if kind == types.Any {
		return fmt.Errorf("compiler: a case label in a switch over an any-typed value must have a concrete static type")
	}
	payload, err := lw.lowerExpr(v)
	if err != nil {
		return err
	}
	subj := lw.allocTemp()
	lw.backend.LoadFrame(subj, lw.frameOffset(subjSlot))
	lw.backend.MovReg(lw.argReg(0), subj)
	lw.backend.MovImm(lw.argReg(1), int64(kind))
	lw.backend.MovReg(lw.argReg(2), payload)
	lw.backend.CallLabel(EntryAnyEquals)
	lw.resetTemps()
	hit := lw.allocTemp()
	lw.backend.MovReg(hit, 0)
	zero := lw.allocTemp()
	lw.backend.MovImm(zero, 0)
	lw.backend.Compare(hit, zero)
	miss := lw.allocTemp()
	lw.backend.SetCond(miss, codegen.CondEQ)
	lw.backend.JumpIfFalse(miss, body)
	return nil
}

var condForOp = map[string]codegen.Cond{
	"==": codegen.CondEQ, "===": codegen.CondEQ,
	"!=": codegen.CondNE,
	"<":  codegen.CondLT,
	">":  codegen.CondGT,
	"<=": codegen.CondLE,
	">=": codegen.CondGE,
}

// lowerCond evaluates a boolean-producing expression into a fresh
// register holding 0 or 1, suitable for JumpIfFalse.
func (lw *lowerer) lowerCond(expr ast.Expression) (codegen.Reg, error) {
	if ie, ok := expr.(*ast.InfixExpression); ok {
		if cond, ok := condForOp[ie.Operator]; ok {
			a, b, err := lw.lowerOperands(ie.Left, ie.Right)
			if err != nil {
				return 0, err
			}
			lw.backend.Compare(a, b)
			dst := lw.allocTemp()
			lw.backend.SetCond(dst, cond)
			return dst, nil
		}
	}
	return lw.lowerExpr(expr)
}

var arithOps = map[string]bool{"+": true, "-": true, "*": true, "/": true}

func (lw *lowerer) emitArith(op string, dst, a, c codegen.Reg) {
	switch op {
	case "+":
		lw.backend.Add(dst, a, c)
	case "-":
		lw.backend.Sub(dst, a, c)
	case "*":
		lw.backend.Mul(dst, a, c)
	case "/":
		lw.backend.Div(dst, a, c)
	}
}

// lowerOperands evaluates a binary expression's operands left to right.
// A call anywhere in the right operand clobbers the scratch pool, so
// the left value is spilled to a frame slot across it and reloaded.
func (lw *lowerer) lowerOperands(left, right ast.Expression) (codegen.Reg, codegen.Reg, error) {
	a, err := lw.lowerExpr(left)
	if err != nil {
		return 0, 0, err
	}
	if !containsCall(right) {
		b, err := lw.lowerExpr(right)
		return a, b, err
	}
	slot := lw.declareSlot(lw.newLabel("spill"), nil)
	lw.backend.StoreFrame(lw.frameOffset(slot), a)
	b, err := lw.lowerExpr(right)
	if err != nil {
		return 0, 0, err
	}
	a = lw.allocTemp()
	lw.backend.LoadFrame(a, lw.frameOffset(slot))
	return a, b, nil
}

func (lw *lowerer) lowerExpr(expr ast.Expression) (codegen.Reg, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		dst := lw.allocTemp()
		lw.backend.MovImm(dst, e.Value)
		return dst, nil
	case *ast.FloatLiteral:
		dst := lw.allocTemp()
		lw.backend.MovImm(dst, int64(math.Float64bits(e.Value)))
		return dst, nil
	case *ast.StringLiteral:
		dst := lw.allocTemp()
		lw.backend.MovImm(dst, InternString(e.Value))
		return dst, nil
	case *ast.BoolLiteral:
		dst := lw.allocTemp()
		if e.Value {
			lw.backend.MovImm(dst, 1)
		} else {
			lw.backend.MovImm(dst, 0)
		}
		return dst, nil
	case *ast.Identifier:
		slot, ok := lw.slots[e.Value]
		if !ok {
			return 0, fmt.Errorf("compiler: undeclared identifier %q", e.Value)
		}
		dst := lw.allocTemp()
		lw.backend.LoadFrame(dst, lw.frameOffset(slot))
		return dst, nil
	case *ast.ThisExpression:
		slot, ok := lw.slots["this"]
		if !ok {
			return 0, fmt.Errorf("compiler: 'this' outside a method or constructor")
		}
		dst := lw.allocTemp()
		lw.backend.LoadFrame(dst, lw.frameOffset(slot))
		return dst, nil
	case *ast.PrefixExpression:
		return lw.lowerPrefix(e)
	case *ast.PostfixExpression:
		return lw.lowerIncDec(e.Left, e.Operator, false)
	case *ast.InfixExpression:
		return lw.lowerInfix(e)
	case *ast.TernaryExpression:
		return lw.lowerTernary(e)
	case *ast.AssignExpression:
		return lw.lowerAssign(e)
	case *ast.CallExpression:
		return lw.lowerCall(e)
	case *ast.NewExpression:
		return lw.lowerNew(e)
	case *ast.MemberExpression:
		return lw.lowerMemberLoad(e)
	case *ast.GoExpression:
		return lw.lowerGo(e)
	case *ast.AwaitExpression:
		p, err := lw.lowerExpr(e.Value)
		if err != nil {
			return 0, err
		}
		dst := lw.allocTemp()
		lw.backend.AwaitPromise(dst, p)
		return dst, nil
	default:
		return 0, fmt.Errorf("compiler: expression %T not supported by this lowering pass", expr)
	}
}

func (lw *lowerer) lowerPrefix(e *ast.PrefixExpression) (codegen.Reg, error) {
	switch e.Operator {
	case "-":
		r, err := lw.lowerExpr(e.Right)
		if err != nil {
			return 0, err
		}
		zero := lw.allocTemp()
		lw.backend.MovImm(zero, 0)
		dst := lw.allocTemp()
		lw.backend.Sub(dst, zero, r)
		return dst, nil
	case "!":
		r, err := lw.lowerExpr(e.Right)
		if err != nil {
			return 0, err
		}
		zero := lw.allocTemp()
		lw.backend.MovImm(zero, 0)
		lw.backend.Compare(r, zero)
		dst := lw.allocTemp()
		lw.backend.SetCond(dst, codegen.CondEQ)
		return dst, nil
	case "++", "--":
		return lw.lowerIncDec(e.Right, e.Operator, true)
	default:
		return 0, fmt.Errorf("compiler: prefix operator %q not supported", e.Operator)
	}
}

// lowerIncDec handles ++/--. The prefix form yields the updated value,
// the postfix form yields the value read before the update.
func (lw *lowerer) lowerIncDec(target ast.Expression, op string, prefix bool) (codegen.Reg, error) {
	ident, ok := target.(*ast.Identifier)
	if !ok {
		return 0, fmt.Errorf("compiler: %s requires a variable operand", op)
	}
	slot, ok := lw.slots[ident.Value]
	if !ok {
		return 0, fmt.Errorf("compiler: undeclared identifier %q", ident.Value)
	}

	old := lw.allocTemp()
	lw.backend.LoadFrame(old, lw.frameOffset(slot))
	one := lw.allocTemp()
	lw.backend.MovImm(one, 1)
	updated := lw.allocTemp()
	if op == "++" {
		lw.backend.Add(updated, old, one)
	} else {
		lw.backend.Sub(updated, old, one)
	}
	lw.backend.StoreFrame(lw.frameOffset(slot), updated)
	if prefix {
		return updated, nil
	}
	return old, nil
}

func isFloatKind(k types.Kind) bool { return k == types.Float32 || k == types.Float64 }

func (lw *lowerer) lowerInfix(e *ast.InfixExpression) (codegen.Reg, error) {
	if arithOps[e.Operator] {
		if isFloatKind(staticKind(e.Left)) || isFloatKind(staticKind(e.Right)) {
			return 0, fmt.Errorf("compiler: float arithmetic is not lowered natively yet")
		}
		if staticKind(e.Left) == types.String || staticKind(e.Right) == types.String {
			return 0, fmt.Errorf("compiler: string concatenation is not lowered natively yet")
		}
		a, b, err := lw.lowerOperands(e.Left, e.Right)
		if err != nil {
			return 0, err
		}
		dst := lw.allocTemp()
		lw.emitArith(e.Operator, dst, a, b)
		return dst, nil
	}
	if _, ok := condForOp[e.Operator]; ok {
		return lw.lowerCond(e)
	}
	switch e.Operator {
	case "&&":
		return lw.lowerLogicalAnd(e)
	case "||":
		return lw.lowerLogicalOr(e)
	}
	return 0, fmt.Errorf("compiler: operator %q not supported by this lowering pass", e.Operator)
}

// lowerLogicalAnd short-circuits: the right operand is not evaluated
// when the left is already false. The destination is initialized after
// the left operand, which may contain calls that would clobber it.
func (lw *lowerer) lowerLogicalAnd(e *ast.InfixExpression) (codegen.Reg, error) {
	end := lw.newLabel("and_end")

	a, err := lw.lowerExpr(e.Left)
	if err != nil {
		return 0, err
	}
	dst := lw.allocTemp()
	lw.backend.MovImm(dst, 0)
	lw.backend.JumpIfFalse(a, end)

	b, err := lw.lowerExpr(e.Right)
	if err != nil {
		return 0, err
	}
	zero := lw.allocTemp()
	lw.backend.MovImm(zero, 0)
	lw.backend.Compare(b, zero)
	lw.backend.SetCond(dst, codegen.CondNE)
	lw.backend.Label(end)
	return dst, nil
}

// lowerLogicalOr short-circuits: the right operand is not evaluated
// when the left is already true.
func (lw *lowerer) lowerLogicalOr(e *ast.InfixExpression) (codegen.Reg, error) {
	tryRight := lw.newLabel("or_right")
	end := lw.newLabel("or_end")

	a, err := lw.lowerExpr(e.Left)
	if err != nil {
		return 0, err
	}
	dst := lw.allocTemp()
	lw.backend.MovImm(dst, 1)
	lw.backend.JumpIfFalse(a, tryRight)
	lw.backend.Jump(end)

	lw.backend.Label(tryRight)
	b, err := lw.lowerExpr(e.Right)
	if err != nil {
		return 0, err
	}
	zero := lw.allocTemp()
	lw.backend.MovImm(zero, 0)
	lw.backend.Compare(b, zero)
	lw.backend.SetCond(dst, codegen.CondNE)
	lw.backend.Label(end)
	return dst, nil
}

func (lw *lowerer) lowerTernary(e *ast.TernaryExpression) (codegen.Reg, error) {
	elseLabel := lw.newLabel("tern_else")
	endLabel := lw.newLabel("tern_end")

	cond, err := lw.lowerCond(e.Condition)
	if err != nil {
		return 0, err
	}
	dst := lw.allocTemp()
	lw.backend.JumpIfFalse(cond, elseLabel)
	thenVal, err := lw.lowerExpr(e.Then)
	if err != nil {
		return 0, err
	}
	lw.backend.MovReg(dst, thenVal)
	lw.backend.Jump(endLabel)
	lw.backend.Label(elseLabel)
	elseVal, err := lw.lowerExpr(e.Else)
	if err != nil {
		return 0, err
	}
	lw.backend.MovReg(dst, elseVal)
	lw.backend.Label(endLabel)
	return dst, nil
}

// lowerAssign handles `x = v` and the compound forms against a named
// local or an instance field; as an expression it yields the stored
// value.
func (lw *lowerer) lowerAssign(e *ast.AssignExpression) (codegen.Reg, error) {
	if member, ok := e.Target.(*ast.MemberExpression); ok {
		return lw.lowerFieldStore(member, e)
	}
	ident, ok := e.Target.(*ast.Identifier)
	if !ok {
		return 0, fmt.Errorf("compiler: assignment target %T not supported by this lowering pass", e.Target)
	}
	slot, ok := lw.slots[ident.Value]
	if !ok {
		return 0, fmt.Errorf("compiler: assignment to undeclared identifier %q", ident.Value)
	}

	val, err := lw.lowerExpr(e.Value)
	if err != nil {
		return 0, err
	}

	if e.Operator == "=" {
		if t := lw.slotTypes[ident.Value]; t != nil && t.Kind == types.Any {
			if k := staticKind(e.Value); k != types.Any {
				val = lw.boxValue(val, k)
			}
		}
		lw.backend.StoreFrame(lw.frameOffset(slot), val)
		return val, nil
	}

	cur := lw.allocTemp()
	lw.backend.LoadFrame(cur, lw.frameOffset(slot))
	dst := lw.allocTemp()
	lw.emitArith(string(e.Operator[0]), dst, cur, val)
	lw.backend.StoreFrame(lw.frameOffset(slot), dst)
	return dst, nil
}

// fieldOf resolves a member expression's field against the class
// registry using the object expression's inferred static type.
func (lw *lowerer) fieldOf(member *ast.MemberExpression) (*semantic.FieldInfo, error) {
	t := member.Object.GetType()
	if t == nil || t.Kind != types.ClassInstance {
		return nil, fmt.Errorf("compiler: member access on a non-class value")
	}
	ci, ok := lw.classes.Get(t.ClassName)
	if !ok {
		return nil, fmt.Errorf("compiler: unknown class %q", t.ClassName)
	}
	f := ci.LookupField(member.Property)
	if f == nil {
		return nil, fmt.Errorf("compiler: class %q has no field %q", t.ClassName, member.Property)
	}
	return f, nil
}

// lowerFieldStore lowers `obj.field = value`. Reference-typed fields
// get a write barrier after the store so a collecting allocator sees a
// well-formed heap graph.
func (lw *lowerer) lowerFieldStore(member *ast.MemberExpression, e *ast.AssignExpression) (codegen.Reg, error) {
	if e.Operator != "=" {
		return 0, fmt.Errorf("compiler: compound assignment to a field is not supported")
	}
	f, err := lw.fieldOf(member)
	if err != nil {
		return 0, err
	}
	obj, val, err := lw.lowerOperands(member.Object, e.Value)
	if err != nil {
		return 0, err
	}
	off := int32(f.Offset * 8)
	lw.backend.StoreField(obj, off, val)
	if f.Type != nil && (f.Type.Kind == types.ClassInstance || f.Type.Kind == types.Any) {
		// The barrier entry clobbers the scratch pool; the stored value
		// survives in the field itself, so reload it for the
		// expression's own result.
		slot := lw.declareSlot(lw.newLabel("barrierobj"), nil)
		lw.backend.StoreFrame(lw.frameOffset(slot), obj)
		lw.backend.WriteBarrier(obj, off, val)
		lw.resetTemps()
		reloaded := lw.allocTemp()
		lw.backend.LoadFrame(reloaded, lw.frameOffset(slot))
		dst := lw.allocTemp()
		lw.backend.LoadField(dst, reloaded, off)
		return dst, nil
	}
	return val, nil
}

func (lw *lowerer) lowerMemberLoad(e *ast.MemberExpression) (codegen.Reg, error) {
	f, err := lw.fieldOf(e)
	if err != nil {
		return 0, err
	}
	obj, err := lw.lowerExpr(e.Object)
	if err != nil {
		return 0, err
	}
	dst := lw.allocTemp()
	lw.backend.LoadField(dst, obj, int32(f.Offset*8))
	return dst, nil
}

// lowerNew allocates an instance of the named class and runs its
// constructor (the nearest one up the parent chain) with the instance
// as the hidden receiver argument. The expression yields the instance
// address.
func (lw *lowerer) lowerNew(e *ast.NewExpression) (codegen.Reg, error) {
	ci, ok := lw.classes.Get(e.ClassName)
	if !ok {
		return 0, fmt.Errorf("compiler: new of unknown class %q", e.ClassName)
	}
	size := ci.InstanceSize
	if size == 0 {
		size = 8
	}
	obj := lw.allocTemp()
	lw.backend.AllocObject(obj, size, lw.classIDs[e.ClassName])

	ctorLabel, ctorArity := constructorLabel(ci)
	if ctorLabel == "" {
		if len(e.Arguments) != 0 {
			return 0, fmt.Errorf("compiler: class %q has no constructor but new received arguments", e.ClassName)
		}
		return obj, nil
	}
	if len(e.Arguments) != ctorArity {
		return 0, fmt.Errorf("compiler: constructor of %q expects %d argument(s), got %d", e.ClassName, ctorArity, len(e.Arguments))
	}

	// The instance must survive argument evaluation, which may call.
	slot := lw.declareSlot(lw.newLabel("newobj"), nil)
	lw.backend.StoreFrame(lw.frameOffset(slot), obj)

	saved := lw.nextTemp
	argVals, err := lw.evalArgs(e.Arguments)
	if err != nil {
		return 0, err
	}
	recv := lw.allocTemp()
	lw.backend.LoadFrame(recv, lw.frameOffset(slot))
	lw.backend.MovReg(lw.argReg(0), recv)
	for i, r := range argVals {
		lw.backend.MovReg(lw.argReg(i+1), r)
	}
	lw.backend.CallLabel(ctorLabel)

	lw.nextTemp = saved
	dst := lw.allocTemp()
	lw.backend.LoadFrame(dst, lw.frameOffset(slot))
	return dst, nil
}

// constructorLabel walks the parent chain for the nearest declared
// constructor, returning its qualified label and declared arity.
func constructorLabel(ci *semantic.ClassInfo) (string, int) {
	for cur := ci; cur != nil; cur = cur.Parent {
		if cur.Constructor != nil {
			return cur.Name + ".constructor", len(cur.Constructor.Parameters)
		}
	}
	return "", 0
}

// methodLabel walks the parent chain for the class that declares the
// method, whose qualified label is the call target.
func methodLabel(ci *semantic.ClassInfo, name string) (string, int, bool) {
	for cur := ci; cur != nil; cur = cur.Parent {
		if m, ok := cur.Methods[name]; ok {
			return cur.Name + "." + name, len(m.Parameters), true
		}
	}
	return "", 0, false
}

func (lw *lowerer) lowerCall(call *ast.CallExpression) (codegen.Reg, error) {
	if member, ok := call.Callee.(*ast.MemberExpression); ok {
		return lw.lowerMethodCall(member, call)
	}
	callee, ok := call.Callee.(*ast.Identifier)
	if !ok {
		return 0, fmt.Errorf("compiler: only direct calls to named functions are supported")
	}
	switch callee.Value {
	case "setTimeout":
		return lw.lowerTimerCall(call, task.EntrySetTimeout)
	case "setInterval":
		return lw.lowerTimerCall(call, task.EntrySetInterval)
	case "clearTimeout", "clearInterval":
		return lw.lowerCancelTimer(call)
	}
	arity, known := lw.funcArity[callee.Value]
	if !known {
		return 0, fmt.Errorf("compiler: call to undeclared function %q", callee.Value)
	}
	if len(call.Arguments) != arity {
		return 0, fmt.Errorf("compiler: %q expects %d argument(s), got %d", callee.Value, arity, len(call.Arguments))
	}
	if arity > maxArgRegs {
		return 0, fmt.Errorf("compiler: %q takes more than %d parameters", callee.Value, maxArgRegs)
	}

	saved := lw.nextTemp
	argVals, err := lw.evalArgs(call.Arguments)
	if err != nil {
		return 0, err
	}
	for i, r := range argVals {
		lw.backend.MovReg(lw.argReg(i), r)
	}
	lw.backend.CallLabel(callee.Value)

	// The call clobbered every scratch register; anything still live
	// was spilled by lowerOperands, so the pool rewinds here.
	lw.nextTemp = saved
	dst := lw.allocTemp()
	lw.backend.MovReg(dst, 0) // callee leaves its result in Reg(0)
	return dst, nil
}

// lowerMethodCall dispatches obj.m(args) to the declaring class's
// qualified label, passing the instance as the hidden first argument.
func (lw *lowerer) lowerMethodCall(member *ast.MemberExpression, call *ast.CallExpression) (codegen.Reg, error) {
	t := member.Object.GetType()
	if t == nil || t.Kind != types.ClassInstance {
		return 0, fmt.Errorf("compiler: method call on a non-class value")
	}
	ci, ok := lw.classes.Get(t.ClassName)
	if !ok {
		return 0, fmt.Errorf("compiler: unknown class %q", t.ClassName)
	}
	label, arity, ok := methodLabel(ci, member.Property)
	if !ok {
		return 0, fmt.Errorf("compiler: class %q has no method %q", t.ClassName, member.Property)
	}
	if len(call.Arguments) != arity {
		return 0, fmt.Errorf("compiler: %q expects %d argument(s), got %d", label, arity, len(call.Arguments))
	}
	if arity+1 > maxArgRegs {
		return 0, fmt.Errorf("compiler: %q takes more than %d parameters", label, maxArgRegs-1)
	}

	obj, err := lw.lowerExpr(member.Object)
	if err != nil {
		return 0, err
	}
	slot := lw.declareSlot(lw.newLabel("recv"), nil)
	lw.backend.StoreFrame(lw.frameOffset(slot), obj)

	saved := lw.nextTemp
	argVals, err := lw.evalArgs(call.Arguments)
	if err != nil {
		return 0, err
	}
	recv := lw.allocTemp()
	lw.backend.LoadFrame(recv, lw.frameOffset(slot))
	lw.backend.MovReg(lw.argReg(0), recv)
	for i, r := range argVals {
		lw.backend.MovReg(lw.argReg(i+1), r)
	}
	lw.backend.CallLabel(label)

	lw.nextTemp = saved
	dst := lw.allocTemp()
	lw.backend.MovReg(dst, 0)
	return dst, nil
}

// evalArgs evaluates arguments left to right into scratch registers
// under one running counter. When a later argument contains a call,
// every earlier value would be clobbered in its register, so in that
// case all arguments are staged through frame slots and reloaded once
// evaluation is done.
func (lw *lowerer) evalArgs(args []ast.Expression) ([]codegen.Reg, error) {
	clobbers := false
	for i, a := range args {
		if i > 0 && containsCall(a) {
			clobbers = true
		}
	}
	argVals := make([]codegen.Reg, len(args))
	if !clobbers {
		for i, a := range args {
			r, err := lw.lowerExpr(a)
			if err != nil {
				return nil, err
			}
			argVals[i] = r
		}
		return argVals, nil
	}

	slots := make([]int, len(args))
	for i, a := range args {
		r, err := lw.lowerExpr(a)
		if err != nil {
			return nil, err
		}
		slots[i] = lw.declareSlot(lw.newLabel("argspill"), nil)
		lw.backend.StoreFrame(lw.frameOffset(slots[i]), r)
	}
	lw.resetTemps()
	for i := range args {
		r := lw.allocTemp()
		lw.backend.LoadFrame(r, lw.frameOffset(slots[i]))
		argVals[i] = r
	}
	return argVals, nil
}

// callbackLabel resolves a function expression used as a task body or
// timer callback to a stable label: a declared function's own name, or
// a fresh internal label for a function literal queued for emission
// into its own region. Never inline — inlining would run the body on
// the scheduling thread instead of a worker or timer dispatch.
func (lw *lowerer) callbackLabel(callee ast.Expression, wantArity int) (string, error) {
	switch c := callee.(type) {
	case *ast.Identifier:
		arity, known := lw.funcArity[c.Value]
		if !known {
			return "", fmt.Errorf("compiler: %q is not a declared function", c.Value)
		}
		if arity != wantArity {
			return "", fmt.Errorf("compiler: %q expects %d argument(s), got %d", c.Value, arity, wantArity)
		}
		return c.Value, nil
	case *ast.FunctionLiteral:
		if len(c.Parameters) != wantArity {
			return "", fmt.Errorf("compiler: callback expects %d argument(s), got %d", len(c.Parameters), wantArity)
		}
		lw.litSeq++
		label := fmt.Sprintf("__task_body_%d", lw.litSeq)
		lw.pendingLits = append(lw.pendingLits, pendingLiteral{
			label:  label,
			params: c.Parameters,
			body:   c.Body,
		})
		return label, nil
	default:
		return "", fmt.Errorf("compiler: expected a named function or function literal, got %T", callee)
	}
}

// lowerGo lowers a spawn expression: the task body's label address plus
// the evaluated arguments go to the spawn entry, and the promise handle
// comes back as the expression's value.
func (lw *lowerer) lowerGo(e *ast.GoExpression) (codegen.Reg, error) {
	if len(e.Call.Arguments) > maxSpawnArgs {
		return 0, fmt.Errorf("compiler: a task body takes at most %d arguments", maxSpawnArgs)
	}
	bodyLabel, err := lw.callbackLabel(e.Call.Callee, len(e.Call.Arguments))
	if err != nil {
		return 0, err
	}
	saved := lw.nextTemp
	argVals, err := lw.evalArgs(e.Call.Arguments)
	if err != nil {
		return 0, err
	}
	for i, r := range argVals {
		lw.backend.MovReg(lw.spawnArgReg(i), r)
	}
	lw.backend.SpawnTask(bodyLabel, len(e.Call.Arguments))

	lw.nextTemp = saved
	dst := lw.allocTemp()
	lw.backend.MovReg(dst, 0) // spawn entry leaves the promise handle in Reg(0)
	return dst, nil
}

// lowerTimerCall lowers setTimeout/setInterval: callback label address
// in the first entry argument register, the delay in the second; the
// timer id comes back as the expression's value.
func (lw *lowerer) lowerTimerCall(call *ast.CallExpression, entry string) (codegen.Reg, error) {
	if len(call.Arguments) != 2 {
		return 0, fmt.Errorf("compiler: %s expects a callback and a delay", call.Callee.String())
	}
	label, err := lw.callbackLabel(call.Arguments[0], 0)
	if err != nil {
		return 0, err
	}
	saved := lw.nextTemp
	delay, err := lw.lowerExpr(call.Arguments[1])
	if err != nil {
		return 0, err
	}
	lw.backend.LoadLabelAddress(lw.argReg(0), label)
	lw.backend.MovReg(lw.argReg(1), delay)
	lw.backend.CallLabel(entry)

	lw.nextTemp = saved
	dst := lw.allocTemp()
	lw.backend.MovReg(dst, 0)
	return dst, nil
}

func (lw *lowerer) lowerCancelTimer(call *ast.CallExpression) (codegen.Reg, error) {
	if len(call.Arguments) != 1 {
		return 0, fmt.Errorf("compiler: timer cancellation expects the timer id")
	}
	saved := lw.nextTemp
	id, err := lw.lowerExpr(call.Arguments[0])
	if err != nil {
		return 0, err
	}
	lw.backend.MovReg(lw.argReg(0), id)
	lw.backend.CallLabel(task.EntryCancelTimer)

	lw.nextTemp = saved
	dst := lw.allocTemp()
	lw.backend.MovReg(dst, 0)
	return dst, nil
}

// containsCall reports whether evaluating e can clobber the scratch
// pool (a call, spawn, await, or allocation anywhere inside it).
func containsCall(e ast.Expression) bool {
	switch x := e.(type) {
	case nil:
		return false
	case *ast.CallExpression, *ast.GoExpression, *ast.AwaitExpression, *ast.NewExpression:
		return true
	case *ast.PrefixExpression:
		return containsCall(x.Right)
	case *ast.PostfixExpression:
		return containsCall(x.Left)
	case *ast.InfixExpression:
		return containsCall(x.Left) || containsCall(x.Right)
	case *ast.TernaryExpression:
		return containsCall(x.Condition) || containsCall(x.Then) || containsCall(x.Else)
	case *ast.AssignExpression:
		return containsCall(x.Target) || containsCall(x.Value)
	case *ast.MemberExpression:
		return containsCall(x.Object)
	case *ast.IndexExpression:
		return containsCall(x.Left) || containsCall(x.Index)
	default:
		return false
	}
}

// frameSize computes an 8-byte-per-slot frame for a statement list: one
// slot per parameter, one per declaration anywhere in the body (two when
// it has an initializer, for a possible box spill), one per
// switch statement for its spilled subject, and one per expression node
// that spills a live value across a call, rounded up to a 16-byte
// boundary for the native backend's call alignment.
func frameSize(params []*ast.Param, statements []ast.Statement) int {
	count := len(params)
	for _, s := range statements {
		count += countSlots(s)
	}
	bytes := count * 8
	if bytes%16 != 0 {
		bytes += 16 - bytes%16
	}
	if bytes == 0 {
		bytes = 16
	}
	return bytes
}

func countSlots(stmt ast.Statement) int {
	switch s := stmt.(type) {
	case nil:
		return 0
	case *ast.BlockStatement:
		n := 0
		for _, st := range s.Statements {
			n += countSlots(st)
		}
		return n
	case *ast.VarDeclaration:
		if s.Initializer == nil {
			return 1
		}
		return 2 + exprSlots(s.Initializer) // +1 for a possible box spill
	case *ast.ExpressionStatement:
		return exprSlots(s.Expr)
	case *ast.ReturnStatement:
		return exprSlots(s.Value)
	case *ast.IfStatement:
		n := exprSlots(s.Condition) + countSlots(s.Consequence)
		if s.Alternative != nil {
			n += countSlots(s.Alternative)
		}
		return n
	case *ast.WhileStatement:
		return exprSlots(s.Condition) + countSlots(s.Body)
	case *ast.ForStatement:
		n := countSlots(s.Body) + exprSlots(s.Condition)
		if s.Init != nil {
			n += countSlots(s.Init)
		}
		if s.Post != nil {
			n += countSlots(s.Post)
		}
		return n
	case *ast.SwitchStatement:
		n := 1 + exprSlots(s.Subject) // spilled subject
		for _, c := range s.Cases {
			for _, v := range c.Values {
				n += exprSlots(v)
			}
			for _, bs := range c.Body {
				n += countSlots(bs)
			}
		}
		return n
	default:
		return 0
	}
}

// exprSlots counts the frame slots an expression's lowering may claim:
// one per binary node whose right operand spills the left across a
// call, one per `new` (the instance survives constructor-argument
// evaluation in a slot), one per method call (the receiver likewise).
func exprSlots(e ast.Expression) int {
	switch x := e.(type) {
	case nil:
		return 0
	case *ast.PrefixExpression:
		return exprSlots(x.Right)
	case *ast.PostfixExpression:
		return exprSlots(x.Left)
	case *ast.InfixExpression:
		n := exprSlots(x.Left) + exprSlots(x.Right)
		if containsCall(x.Right) {
			n++
		}
		return n
	case *ast.TernaryExpression:
		return exprSlots(x.Condition) + exprSlots(x.Then) + exprSlots(x.Else)
	case *ast.AssignExpression:
		// +2 covers the spill across a call in the value plus a possible
		// box or barrier spill.
		return exprSlots(x.Target) + exprSlots(x.Value) + 2
	case *ast.CallExpression:
		// Arguments may each claim a staging slot, plus the receiver
		// slot for a method call.
		n := len(x.Arguments)
		if _, ok := x.Callee.(*ast.MemberExpression); ok {
			n++
		}
		for _, a := range x.Arguments {
			n += exprSlots(a)
		}
		return n
	case *ast.NewExpression:
		n := 1 + len(x.Arguments) // instance slot + argument staging
		for _, a := range x.Arguments {
			n += exprSlots(a)
		}
		return n
	case *ast.GoExpression:
		return exprSlots(x.Call)
	case *ast.AwaitExpression:
		return exprSlots(x.Value)
	case *ast.MemberExpression:
		return exprSlots(x.Object)
	default:
		return 0
	}
}

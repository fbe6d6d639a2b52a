package semantic

import "github.com/turbobuilt/gots/internal/types"

// Symbol is a single binding in the symbol table: name, resolved type,
// storage location, and mutability.
type Symbol struct {
	Name      string
	Type      *types.Type
	StackSlot int // 8-byte-slot offset from the frame base; -1 for globals
	IsGlobal  bool
	Mutable   bool
	ClassName string // non-empty when Type.Kind == ClassInstance
}

// Scope is one lexical scope frame in the scope chain.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
	// nextSlot grows downward from the frame base, 8 bytes per local.
	nextSlot *int
}

// NewFunctionScope starts a fresh scope chain for a function body: locals
// in this function and any nested block scopes share one downward-growing
// slot counter.
func NewFunctionScope() *Scope {
	zero := 0
	return &Scope{symbols: map[string]*Symbol{}, nextSlot: &zero}
}

// NewChildScope opens a nested block scope that shares the parent
// function's slot counter but shadows its own bindings on exit.
func NewChildScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: map[string]*Symbol{}, nextSlot: parent.nextSlot}
}

// Declare introduces a new local symbol, assigning it the next stack slot.
func (s *Scope) Declare(name string, t *types.Type, mutable bool) *Symbol {
	*s.nextSlot++
	sym := &Symbol{Name: name, Type: t, StackSlot: *s.nextSlot, Mutable: mutable}
	s.symbols[name] = sym
	return sym
}

// DeclareGlobal introduces a module-level symbol with no stack slot.
func (s *Scope) DeclareGlobal(name string, t *types.Type, mutable bool) *Symbol {
	sym := &Symbol{Name: name, Type: t, StackSlot: -1, IsGlobal: true, Mutable: mutable}
	s.symbols[name] = sym
	return sym
}

// Lookup walks the scope chain outward from s, returning the nearest
// binding for name, or nil if unbound.
func (s *Scope) Lookup(name string) *Symbol {
	for cur := s; cur != nil; cur = cur.parent {
		if sym, ok := cur.symbols[name]; ok {
			return sym
		}
	}
	return nil
}
